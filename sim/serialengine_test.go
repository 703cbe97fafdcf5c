package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run events in time order", func() {
		handler := NewMockHandler(mockCtrl)

		var handled []VTimeInSec
		handler.EXPECT().Handle(gomock.Any()).DoAndReturn(
			func(e Event) error {
				handled = append(handled, e.Time())
				return nil
			}).Times(3)

		for _, t := range []VTimeInSec{3e-9, 1e-9, 2e-9} {
			evt := NewMockEvent(mockCtrl)
			evt.EXPECT().Time().Return(t).AnyTimes()
			evt.EXPECT().IsSecondary().Return(false).AnyTimes()
			evt.EXPECT().Handler().Return(handler).AnyTimes()
			engine.Schedule(evt)
		}

		err := engine.Run()

		Expect(err).To(BeNil())
		Expect(handled).To(Equal([]VTimeInSec{1e-9, 2e-9, 3e-9}))
	})

	It("should run secondary events after same-time primary events", func() {
		handler := NewMockHandler(mockCtrl)

		var order []string
		handler.EXPECT().Handle(gomock.Any()).DoAndReturn(
			func(e Event) error {
				if e.IsSecondary() {
					order = append(order, "secondary")
				} else {
					order = append(order, "primary")
				}
				return nil
			}).Times(2)

		secondary := NewMockEvent(mockCtrl)
		secondary.EXPECT().Time().Return(VTimeInSec(1e-9)).AnyTimes()
		secondary.EXPECT().IsSecondary().Return(true).AnyTimes()
		secondary.EXPECT().Handler().Return(handler).AnyTimes()
		engine.Schedule(secondary)

		primary := NewMockEvent(mockCtrl)
		primary.EXPECT().Time().Return(VTimeInSec(1e-9)).AnyTimes()
		primary.EXPECT().IsSecondary().Return(false).AnyTimes()
		primary.EXPECT().Handler().Return(handler).AnyTimes()
		engine.Schedule(primary)

		err := engine.Run()

		Expect(err).To(BeNil())
		Expect(order).To(Equal([]string{"primary", "secondary"}))
	})

	It("should advance the time to the event time", func() {
		handler := NewMockHandler(mockCtrl)
		handler.EXPECT().Handle(gomock.Any()).Return(nil)

		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(VTimeInSec(4e-9)).AnyTimes()
		evt.EXPECT().IsSecondary().Return(false).AnyTimes()
		evt.EXPECT().Handler().Return(handler).AnyTimes()
		engine.Schedule(evt)

		err := engine.Run()

		Expect(err).To(BeNil())
		Expect(engine.Now()).To(BeNumerically("~", 4e-9, 1e-15))
	})

	It("should panic on scheduling into the past", func() {
		handler := NewMockHandler(mockCtrl)
		handler.EXPECT().Handle(gomock.Any()).Return(nil)

		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(VTimeInSec(4e-9)).AnyTimes()
		evt.EXPECT().IsSecondary().Return(false).AnyTimes()
		evt.EXPECT().Handler().Return(handler).AnyTimes()
		engine.Schedule(evt)

		err := engine.Run()
		Expect(err).To(BeNil())

		late := NewMockEvent(mockCtrl)
		late.EXPECT().Time().Return(VTimeInSec(1e-9)).AnyTimes()
		late.EXPECT().IsSecondary().Return(false).AnyTimes()

		Expect(func() { engine.Schedule(late) }).To(Panic())
	})
})
