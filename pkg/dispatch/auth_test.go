package dispatch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/handler-bot/pkg/dispatch"
	"github.com/keshon/handler-bot/pkg/dispatch/dispatchtest"
)

func fixed(st dispatch.Status, calls *[]string, name string) dispatch.AuthFunc {
	return func(context.Context, dispatch.Message) dispatch.Status {
		*calls = append(*calls, name)
		return st
	}
}

func TestEvaluateEmpty(t *testing.T) {
	st := dispatch.Evaluate(context.Background(), dispatchtest.New("x"))
	assert.True(t, st.OK())

	var c dispatch.Chain
	assert.True(t, c.Evaluate(context.Background(), dispatchtest.New("x")).OK())
}

func TestEvaluateJoinsAllFailuresInOrder(t *testing.T) {
	var calls []string
	st := dispatch.Evaluate(context.Background(), dispatchtest.New("x"),
		fixed(dispatch.Failure("a"), &calls, "f1"),
		fixed(dispatch.Failure("b"), &calls, "f2"),
	)

	require.False(t, st.OK())
	assert.Equal(t, "a\nb", st.Message())
	assert.Equal(t, []string{"f1", "f2"}, calls)
}

func TestEvaluateDoesNotShortCircuit(t *testing.T) {
	var calls []string
	st := dispatch.Evaluate(context.Background(), dispatchtest.New("x"),
		fixed(dispatch.Failure("first"), &calls, "f1"),
		fixed(dispatch.Success(), &calls, "f2"),
		fixed(dispatch.Failure(""), &calls, "f3"),
		fixed(dispatch.Failure("last"), &calls, "f4"),
	)

	assert.Equal(t, []string{"f1", "f2", "f3", "f4"}, calls)
	assert.Equal(t, "first\nlast", st.Message())
}

func TestEvaluateSequential(t *testing.T) {
	// Each predicate observes the side effect of the one before it.
	counter := 0
	step := func(want int) dispatch.AuthFunc {
		return func(context.Context, dispatch.Message) dispatch.Status {
			if counter != want {
				return dispatch.Failure("out of order")
			}
			counter++
			return dispatch.Success()
		}
	}

	st := dispatch.NewChain(step(0), step(1), step(2)).Evaluate(context.Background(), dispatchtest.New("x"))
	assert.True(t, st.OK())
	assert.Equal(t, 3, counter)
}

func TestEvaluateSilentFailure(t *testing.T) {
	var calls []string
	st := dispatch.Evaluate(context.Background(), dispatchtest.New("x"),
		fixed(dispatch.Success(), &calls, "f1"),
		fixed(dispatch.Failure(""), &calls, "f2"),
	)
	assert.False(t, st.OK())
	assert.True(t, st.Silent())
}

func TestEvaluateAllSuccess(t *testing.T) {
	var calls []string
	st := dispatch.NewChain(
		fixed(dispatch.Success(), &calls, "f1"),
		nil,
		fixed(dispatch.Success(), &calls, "f2"),
	).Evaluate(context.Background(), dispatchtest.New("x"))

	assert.True(t, st.OK())
	assert.Equal(t, "success", st.String())
	assert.Equal(t, []string{"f1", "f2"}, calls)
}
