package monitoring

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/till-s/sdramctrl/sim"
)

type sampleComponent struct {
	name string
}

func (c *sampleComponent) Name() string {
	return c.name
}

var _ = Describe("Monitor", func() {
	var m *Monitor

	BeforeEach(func() {
		m = NewMonitor()
		m.RegisterEngine(sim.NewSerialEngine())
	})

	It("should register components", func() {
		m.RegisterComponent(&sampleComponent{name: "Comp1"})
		m.RegisterComponent(&sampleComponent{name: "Comp2"})

		Expect(m.components).To(HaveLen(2))
	})

	It("should list component names as JSON", func() {
		m.RegisterComponent(&sampleComponent{name: "Comp1"})
		m.RegisterComponent(&sampleComponent{name: "Comp2"})

		w := httptest.NewRecorder()
		m.listComponents(w, nil)

		Expect(w.Body.String()).To(Equal(`["Comp1","Comp2"]`))
	})

	It("should report the engine time", func() {
		w := httptest.NewRecorder()
		m.now(w, nil)

		Expect(w.Body.String()).To(ContainSubstring(`"now":`))
	})

	It("should return 404 for an unknown component", func() {
		w := httptest.NewRecorder()

		c := m.findComponentOr404(w, "NoSuchComp")

		Expect(c).To(BeNil())
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should find a registered component", func() {
		comp := &sampleComponent{name: "Comp1"}
		m.RegisterComponent(comp)

		w := httptest.NewRecorder()

		Expect(m.findComponentOr404(w, "Comp1")).To(
			BeIdenticalTo(comp))
	})

	It("should pause and continue the engine", func() {
		w := httptest.NewRecorder()

		m.pauseEngine(w, nil)
		m.continueEngine(w, nil)
	})

	It("should fall back to a random port for privileged ports", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(BeZero())
	})
})
