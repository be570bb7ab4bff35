package sim

import (
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

type countingHandler struct {
	count int64
}

func (h *countingHandler) Handle(e Event) error {
	atomic.AddInt64(&h.count, 1)
	return nil
}

var _ = Describe("ParallelEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *ParallelEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewParallelEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run all the events in a round", func() {
		handler := &countingHandler{}

		for i := 0; i < 100; i++ {
			evt := NewMockEvent(mockCtrl)
			evt.EXPECT().Time().Return(VTimeInSec(1.0)).AnyTimes()
			evt.EXPECT().Handler().Return(handler).AnyTimes()
			evt.EXPECT().IsSecondary().Return(false).AnyTimes()
			engine.Schedule(evt)
		}

		err := engine.Run()

		Expect(err).To(BeNil())
		Expect(atomic.LoadInt64(&handler.count)).To(Equal(int64(100)))
	})

	It("should run rounds in time order", func() {
		handler := &countingHandler{}

		for i := 0; i < 10; i++ {
			evt := NewMockEvent(mockCtrl)
			evt.EXPECT().Time().Return(VTimeInSec(float64(i))).AnyTimes()
			evt.EXPECT().Handler().Return(handler).AnyTimes()
			evt.EXPECT().IsSecondary().Return(false).AnyTimes()
			engine.Schedule(evt)
		}

		err := engine.Run()

		Expect(err).To(BeNil())
		Expect(atomic.LoadInt64(&handler.count)).To(Equal(int64(10)))
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(9.0)))
	})

	It("should run secondary events after primary events", func() {
		order := make(chan string, 2)

		primaryEvt := NewMockEvent(mockCtrl)
		secondaryEvt := NewMockEvent(mockCtrl)
		primaryHandler := NewMockHandler(mockCtrl)
		secondaryHandler := NewMockHandler(mockCtrl)

		primaryEvt.EXPECT().Time().Return(VTimeInSec(1.0)).AnyTimes()
		primaryEvt.EXPECT().Handler().Return(primaryHandler).AnyTimes()
		primaryEvt.EXPECT().IsSecondary().Return(false).AnyTimes()
		secondaryEvt.EXPECT().Time().Return(VTimeInSec(1.0)).AnyTimes()
		secondaryEvt.EXPECT().Handler().Return(secondaryHandler).AnyTimes()
		secondaryEvt.EXPECT().IsSecondary().Return(true).AnyTimes()

		primaryHandler.EXPECT().Handle(primaryEvt).Do(func(e Event) {
			order <- "primary"
		})
		secondaryHandler.EXPECT().Handle(secondaryEvt).Do(func(e Event) {
			order <- "secondary"
		})

		engine.Schedule(secondaryEvt)
		engine.Schedule(primaryEvt)

		err := engine.Run()

		Expect(err).To(BeNil())
		Expect(<-order).To(Equal("primary"))
		Expect(<-order).To(Equal("secondary"))
	})
})
