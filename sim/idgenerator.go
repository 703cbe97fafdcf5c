package sim

import (
	"strconv"
	"sync/atomic"
)

var nextEventID uint64

// GenerateID returns a process-unique identifier for events.
func GenerateID() string {
	idNumber := atomic.AddUint64(&nextEventID, 1)

	return strconv.FormatUint(idNumber, 10)
}
