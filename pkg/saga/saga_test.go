package saga_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/reconciler/pkg/saga"
)

func step(name string, trace *[]string, fail bool) saga.Step {
	return saga.Step{
		Name: name,
		Execute: func(ctx context.Context) error {
			if fail {
				return errors.New(name + " failed")
			}
			*trace = append(*trace, "exec:"+name)
			return nil
		},
		Compensate: func(ctx context.Context) error {
			*trace = append(*trace, "undo:"+name)
			return nil
		},
	}
}

func TestSaga_AllStepsSucceed(t *testing.T) {
	var trace []string

	s := saga.New("authorize-flow").
		AddStep(step("authorize", &trace, false)).
		AddStep(step("record", &trace, false)).
		AddStep(step("complete", &trace, false))

	failed, err := s.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -1, failed)
	assert.Equal(t, []string{"exec:authorize", "exec:record", "exec:complete"}, trace)
}

func TestSaga_MidStepFailureCompensatesCompletedOnly(t *testing.T) {
	var trace []string

	s := saga.New("authorize-flow").
		AddStep(step("authorize", &trace, false)).
		AddStep(step("record", &trace, true)).
		AddStep(step("complete", &trace, false))

	failed, err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, failed)
	assert.Contains(t, err.Error(), "record failed")
	// authorize ran and was undone; record never completed, complete never ran.
	assert.Equal(t, []string{"exec:authorize", "undo:authorize"}, trace)
}

func TestSaga_LastStepFailureUnwindsInReverse(t *testing.T) {
	var trace []string

	s := saga.New("authorize-flow").
		AddStep(step("authorize", &trace, false)).
		AddStep(step("record", &trace, false)).
		AddStep(step("complete", &trace, true))

	failed, err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, failed)
	assert.Equal(t, []string{"exec:authorize", "exec:record", "undo:record", "undo:authorize"}, trace)
}

func TestSaga_Empty(t *testing.T) {
	failed, err := saga.New("empty").Execute(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, -1, failed)
}

func TestSaga_CompensationErrorsAreJoined(t *testing.T) {
	fail := func(msg string) func(ctx context.Context) error {
		return func(ctx context.Context) error { return errors.New(msg) }
	}
	ok := func(ctx context.Context) error { return nil }

	s := saga.New("authorize-flow").
		AddStep(saga.Step{Name: "authorize", Execute: ok, Compensate: fail("undo authorize failed")}).
		AddStep(saga.Step{Name: "record", Execute: ok, Compensate: fail("undo record failed")}).
		AddStep(saga.Step{Name: "complete", Execute: fail("complete failed")})

	_, err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undo authorize failed")
	assert.Contains(t, err.Error(), "undo record failed")
}

func TestSaga_NilCompensateIsSkipped(t *testing.T) {
	s := saga.New("authorize-flow").
		AddStep(saga.Step{
			Name:    "authorize",
			Execute: func(ctx context.Context) error { return nil },
		}).
		AddStep(saga.Step{
			Name:    "record",
			Execute: func(ctx context.Context) error { return errors.New("record failed") },
		})

	failed, err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, failed)
}
