package traverse

import (
	"sync"

	"renamezip/internal/errors"
	"renamezip/internal/log"
)

// ErrorPolicy decides what happens when one entry cannot be read. A nil
// return skips the entry; an error aborts the walk.
type ErrorPolicy interface {
	OnEntryError(err *errors.TraversalError) error
}

// LogAndSkip logs the failure, records it and carries on.
type LogAndSkip struct {
	mu   sync.Mutex
	errs []error
}

// OnEntryError implements ErrorPolicy
func (p *LogAndSkip) OnEntryError(err *errors.TraversalError) error {
	log.LogWithError(err).Warn("skipping unreadable entry")
	p.mu.Lock()
	p.errs = append(p.errs, err)
	p.mu.Unlock()
	return nil
}

// Skipped returns the number of entries skipped so far
func (p *LogAndSkip) Skipped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.errs)
}

// Errors returns a copy of the recorded failures
func (p *LogAndSkip) Errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]error, len(p.errs))
	copy(out, p.errs)
	return out
}

// FailFast aborts the walk on the first unreadable entry.
type FailFast struct{}

// OnEntryError implements ErrorPolicy
func (FailFast) OnEntryError(err *errors.TraversalError) error {
	return err
}
