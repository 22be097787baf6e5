package mixer

import "time"

// Task is a cancellable, time-extended process stepped by its owner at
// each scheduling tick. A finished or cancelled task never runs its step
// again, so an orphaned task cannot keep mutating shared state after the
// owner considers it done.
type Task struct {
	step func(dt time.Duration) bool
	done bool
}

// NewTask wraps a step function that advances the process by dt and
// returns true when the process has completed.
func NewTask(step func(dt time.Duration) bool) *Task {
	return &Task{step: step}
}

func (t *Task) Step(dt time.Duration) {
	if t == nil || t.done || t.step == nil {
		return
	}
	if t.step(dt) {
		t.done = true
	}
}

func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.done = true
}

func (t *Task) Done() bool {
	return t == nil || t.done
}
