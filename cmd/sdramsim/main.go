// The sdramsim command runs the SDRAM controller simulation from the
// command line.
package main

func main() {
	Execute()
}
