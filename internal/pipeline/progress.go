package pipeline

import (
	"math"

	"renamezip/internal/config"
	"renamezip/pkg/types"
)

// DefaultRanges splits progress evenly between preview and packaging.
var DefaultRanges = config.Progress{
	PreviewStart: 0,
	PreviewEnd:   50,
	PackageStart: 50,
	PackageEnd:   100,
}

// span maps item counts onto one phase's share of [0,100].
type span struct {
	start, end float64
}

// at returns the checkpoint after done of total items. With slack set the
// last item stops short of end, leaving the final step to finalization.
func (s span) at(done, total int, slack bool) float64 {
	if total <= 0 {
		return s.start
	}
	denom := float64(total)
	if slack {
		denom++
	}
	return math.Min(s.end, s.start+(s.end-s.start)*float64(done)/denom)
}

// OnProgress registers fn to receive every progress checkpoint. Observers
// run on the goroutine of the operation, outside the orchestrator's lock.
func (o *Orchestrator) OnProgress(fn func(types.ProgressUpdate)) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	o.observers = append(o.observers, fn)
	o.mu.Unlock()
}

// emit records a checkpoint and notifies observers.
func (o *Orchestrator) emit(phase types.Phase, percent float64, current, total int, msg string) {
	o.mu.Lock()
	o.phase = phase
	o.progress = percent
	observers := make([]func(types.ProgressUpdate), len(o.observers))
	copy(observers, o.observers)
	o.mu.Unlock()

	update := types.ProgressUpdate{
		Phase:   phase,
		Percent: percent,
		Current: current,
		Total:   total,
		Message: msg,
	}
	for _, fn := range observers {
		fn(update)
	}
}
