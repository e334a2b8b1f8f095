package saga

import (
	"context"
	"errors"
	"fmt"
)

// Step pairs a forward action with the compensation that undoes it. Steps
// without side effects can leave Compensate nil.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga runs steps in order and unwinds completed ones when a later step
// fails.
type Saga struct {
	name  string
	steps []Step
}

func New(name string) *Saga {
	return &Saga{name: name}
}

func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the steps sequentially. On failure it compensates every
// previously completed step in reverse order and returns the index of the
// step that failed. A fully successful run returns (-1, nil).
func (s *Saga) Execute(ctx context.Context) (int, error) {
	var done []Step

	for i, step := range s.steps {
		if err := step.Execute(ctx); err != nil {
			if compErr := unwind(ctx, done); compErr != nil {
				return i, fmt.Errorf("saga %s: step %q failed (%w), compensation also failed: %v", s.name, step.Name, err, compErr)
			}
			return i, fmt.Errorf("saga %s: step %q failed: %w", s.name, step.Name, err)
		}
		done = append(done, step)
	}

	return -1, nil
}

// unwind compensates completed steps newest first. All compensations run even
// if some fail; their errors are joined.
func unwind(ctx context.Context, done []Step) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		if done[i].Compensate == nil {
			continue
		}
		if err := done[i].Compensate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("compensate step %q: %w", done[i].Name, err))
		}
	}
	return errors.Join(errs...)
}
