package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
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

	mockEvent := func(t VTimeInSec, h Handler, secondary bool) *MockEvent {
		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(t).AnyTimes()
		evt.EXPECT().Handler().Return(h).AnyTimes()
		evt.EXPECT().IsSecondary().Return(secondary).AnyTimes()

		return evt
	}

	It("should schedule events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		evt1 := mockEvent(4.0, handler1, false)
		evt2 := mockEvent(2.0, handler2, false)
		evt3 := mockEvent(3.0, handler1, false)
		evt4 := mockEvent(5.0, handler1, false)

		handleEvt2 := handler2.EXPECT().Handle(evt2).DoAndReturn(
			func(e Event) error {
				engine.Schedule(evt3)
				engine.Schedule(evt4)
				return nil
			})
		handleEvt3 := handler1.EXPECT().Handle(evt3).After(handleEvt2)
		handleEvt1 := handler1.EXPECT().Handle(evt1).After(handleEvt3)
		handler1.EXPECT().Handle(evt4).After(handleEvt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		Expect(engine.Run()).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(5.0)))
	})

	It("should consider secondary events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		handler3 := NewMockHandler(mockCtrl)
		evt1 := mockEvent(2.0, handler1, true)
		evt2 := mockEvent(2.0, handler2, false)
		evt3 := mockEvent(2.0, handler3, false)

		handleEvt2 := handler2.EXPECT().Handle(evt2)
		handleEvt3 := handler3.EXPECT().Handle(evt3)
		handler1.EXPECT().Handle(evt1).After(handleEvt2).After(handleEvt3)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		Expect(engine.Run()).To(Succeed())
	})

	It("should run same-time events in scheduling order", func() {
		order := []int{}
		for i := 0; i < 10; i++ {
			i := i
			h := HandlerFunc(func(e Event) error {
				order = append(order, i)
				return nil
			})
			engine.Schedule(NewEventBase(1.0, h))
		}

		Expect(engine.Run()).To(Succeed())
		Expect(order).To(Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
	})

	It("should panic when scheduling an event in the past", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEvent(2.0, handler, false)
		evt2 := mockEvent(1.0, handler, false)

		handler.EXPECT().Handle(evt1).Do(func(e Event) {
			engine.Schedule(evt2)
		})
		engine.Schedule(evt1)

		Expect(func() { _ = engine.Run() }).To(Panic())
	})

	It("should stop and report the error returned by a handler", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEvent(1.0, handler, false)
		evt2 := mockEvent(2.0, handler, false)
		handlerErr := errors.New("handler failed")

		handler.EXPECT().Handle(evt1).Return(handlerErr)
		engine.Schedule(evt1)
		engine.Schedule(evt2)

		Expect(engine.Run()).To(MatchError(handlerErr))
	})

	It("should drop pending events when terminated", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEvent(1.0, handler, false)
		evt2 := mockEvent(2.0, handler, false)
		evt3 := mockEvent(3.0, handler, true)

		handler.EXPECT().Handle(evt1).Do(func(e Event) {
			engine.Terminate()
		})
		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		Expect(engine.Run()).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(1.0)))
	})

	It("should invoke hooks before and after each event", func() {
		handler := NewMockHandler(mockCtrl)
		evt := mockEvent(1.0, handler, false)
		handler.EXPECT().Handle(evt)

		positions := []*HookPos{}
		engine.AcceptHook(HookFunc(func(ctx HookCtx) {
			Expect(ctx.Item).To(BeIdenticalTo(evt))
			positions = append(positions, ctx.Pos)
		}))
		engine.Schedule(evt)

		Expect(engine.Run()).To(Succeed())
		Expect(positions).To(Equal(
			[]*HookPos{HookPosBeforeEvent, HookPosAfterEvent}))
	})

	It("should call simulation end handlers when finished", func() {
		var endTime VTimeInSec = -1
		engine.RegisterSimulationEndHandler(endHandlerFunc(
			func(now VTimeInSec) { endTime = now }))

		engine.Schedule(NewEventBase(3.0, HandlerFunc(
			func(e Event) error { return nil })))
		Expect(engine.Run()).To(Succeed())
		engine.Finished()

		Expect(endTime).To(Equal(VTimeInSec(3.0)))
	})
})

type endHandlerFunc func(now VTimeInSec)

func (f endHandlerFunc) Handle(now VTimeInSec) {
	f(now)
}
