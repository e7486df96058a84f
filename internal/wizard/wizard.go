// Package wizard drives the six-step application form: per-step validation,
// save-before-advance gating, a persisted draft and sequenced submission of
// the aggregate to the server.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// StepState tracks one step's save status.
type StepState int

const (
	Unsaved StepState = iota
	Saving
	Saved
)

func (s StepState) String() string {
	switch s {
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	}
	return "unsaved"
}

var (
	ErrIncompleteSteps = errors.New("please save all steps before submitting the application")
	ErrSaveInProgress  = errors.New("step is already being saved")
	ErrStepOutOfRange  = errors.New("step index out of range")
)

// Saver is the per-step save callback. It receives only that step's data.
type Saver func(ctx context.Context, s Step) error

// Wizard is safe for concurrent use.
type Wizard struct {
	mu      sync.Mutex
	store   DraftStore
	queue   *SubmitQueue
	saver   Saver
	log     *zap.Logger
	draft   Draft
	working [StepCount]Step
	states  [StepCount]StepState
	idx     int
}

// New restores the draft from store and starts a submit queue over sub. A
// nil saver accepts every valid step.
func New(ctx context.Context, store DraftStore, sub Submitter, saver Saver, log *zap.Logger) (*Wizard, error) {
	d, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	w := &Wizard{store: store, saver: saver, log: log, draft: d}
	for i, ok := range d.Saved {
		if ok {
			w.states[i] = Saved
		}
	}
	w.queue = NewSubmitQueue(ctx, sub, d.ApplicationID, w.setApplicationID, log)
	return w, nil
}

func (w *Wizard) setApplicationID(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft.ApplicationID == id {
		return
	}
	w.draft.ApplicationID = id
	w.persist()
}

// persist writes the draft; callers hold mu. A failed write is logged and
// the in-memory state stays authoritative.
func (w *Wizard) persist() {
	if err := w.store.Save(w.draft); err != nil {
		w.log.Warn("wizard: persist draft", zap.Error(err))
	}
}

// Edit replaces the working data of s's step and marks it unsaved. A nil
// step is ignored.
func (w *Wizard) Edit(s Step) {
	if s == nil {
		return
	}
	i := s.Index()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.working[i] = s
	w.states[i] = Unsaved
	if w.draft.Saved[i] {
		w.draft.Saved[i] = false
		w.persist()
	}
}

// Step returns the data shown for step i: the pending edit if any,
// otherwise what was last saved.
func (w *Wizard) Step(i int) Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= StepCount {
		return nil
	}
	if w.working[i] != nil {
		return w.working[i]
	}
	return w.draft.Data.At(i)
}

// Save validates step i, runs the save callback, merges the step into the
// aggregate, persists the draft and queues a submission of the aggregate.
func (w *Wizard) Save(ctx context.Context, i int) error {
	if i < 0 || i >= StepCount {
		return ErrStepOutOfRange
	}
	w.mu.Lock()
	if w.states[i] == Saving {
		w.mu.Unlock()
		return ErrSaveInProgress
	}
	s := w.working[i]
	if s == nil {
		s = w.draft.Data.At(i)
	}
	if err := Validate(s); err != nil {
		w.mu.Unlock()
		return err
	}
	w.states[i] = Saving
	w.mu.Unlock()

	if w.saver != nil {
		if err := w.saver(ctx, s); err != nil {
			w.mu.Lock()
			if w.states[i] == Saving {
				w.states[i] = Unsaved
			}
			w.mu.Unlock()
			return err
		}
	}

	w.mu.Lock()
	s.mergeInto(&w.draft.Data)
	// an edit made while saving leaves the step unsaved
	if w.states[i] == Saving {
		w.states[i] = Saved
		w.draft.Saved[i] = true
		if w.working[i] == s {
			w.working[i] = nil
		}
	}
	w.persist()
	data := w.draft.Data
	w.mu.Unlock()

	return w.queue.Enqueue(data)
}

// Current is the cursor position.
func (w *Wizard) Current() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.idx
}

// State reports step i's save status.
func (w *Wizard) State(i int) StepState {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= StepCount {
		return Unsaved
	}
	return w.states[i]
}

// Next advances when the current step is saved and reports whether it moved.
func (w *Wizard) Next() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.states[w.idx] != Saved || w.idx == StepCount-1 {
		return false
	}
	w.idx++
	return true
}

// Prev moves back one step; it never needs a save.
func (w *Wizard) Prev() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.idx == 0 {
		return false
	}
	w.idx--
	return true
}

// Jump moves to step i when it is behind the cursor or already saved.
func (w *Wizard) Jump(i int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= StepCount {
		return false
	}
	if i > w.idx && w.states[i] != Saved {
		return false
	}
	w.idx = i
	return true
}

// Submit sends the complete aggregate once more, waits for every queued
// submission to finish and returns the application id.
func (w *Wizard) Submit(ctx context.Context) (uint64, error) {
	w.mu.Lock()
	for _, st := range w.states {
		if st != Saved {
			w.mu.Unlock()
			return 0, ErrIncompleteSteps
		}
	}
	data := w.draft.Data
	w.mu.Unlock()

	if err := w.queue.Enqueue(data); err != nil {
		return 0, err
	}
	if err := w.queue.Flush(ctx); err != nil {
		return 0, err
	}
	if err := w.queue.Err(); err != nil {
		return 0, fmt.Errorf("submit application: %w", err)
	}
	return w.queue.ApplicationID(), nil
}

// Draft returns a copy of the persisted draft.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Flush waits for queued submissions.
func (w *Wizard) Flush(ctx context.Context) error { return w.queue.Flush(ctx) }

// Close drains the submit queue and stops its worker.
func (w *Wizard) Close() { w.queue.Close() }
