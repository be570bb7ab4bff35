package tracing

import (
	"strconv"

	"github.com/sarchlab/phoswich/sim"
	"github.com/sarchlab/phoswich/tracking"
	"github.com/sarchlab/phoswich/transport"
)

// CollectTrace lets the tracer collect a task for every track the stepper
// runs. Registering the same tracer on a stepper twice panics.
func CollectTrace(stepper *transport.Stepper, tracer Tracer) {
	if stepper == nil {
		panic("collect trace requires a stepper")
	}
	if tracer == nil {
		panic("collect trace requires a tracer")
	}

	for _, hook := range stepper.Hooks {
		h, ok := hook.(*traceHook)
		if ok && h.tracer == tracer {
			panic("stepper already collects traces into this tracer")
		}
	}

	stepper.AcceptHook(&traceHook{tracer: tracer})
}

// A traceHook converts stepping callbacks into task lifecycles: a track's
// first step starts its task, the track end closes it.
type traceHook struct {
	tracer Tracer
}

// Func calls the tracer interfaces when the hook is triggered.
func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case transport.HookPosStepPost:
		info := ctx.Item.(transport.StepInfo)
		if info.Step.IsFirst(info.Track) {
			h.tracer.StartTask(taskFromFirstStep(info.Step, info.Track))
		}
	case transport.HookPosTrackEnd:
		h.tracer.EndTask(taskFromTrackEnd(ctx.Item.(*tracking.Track)))
	}
}

// taskFromFirstStep captures the birth state a finished track no longer
// remembers: its first volume and its start time.
func taskFromFirstStep(step *tracking.Step, trk *tracking.Track) Task {
	return Task{
		ID:       strconv.Itoa(trk.ID),
		ParentID: strconv.Itoa(trk.ParentID),
		Kind:     KindTrack,
		What:     trk.Particle,
		Where:    step.PreStepPoint.VolumeName,
		Start:    step.PreStepPoint.GlobalTimeNS,
		Detail:   trk,
	}
}

func taskFromTrackEnd(trk *tracking.Track) Task {
	return Task{
		ID:     strconv.Itoa(trk.ID),
		End:    trk.GlobalTimeNS,
		Detail: trk,
	}
}
