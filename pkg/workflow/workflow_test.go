package workflow_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paceline/paceline/pkg/agents"
	"github.com/paceline/paceline/pkg/checkpoints"
	"github.com/paceline/paceline/pkg/types"
	"github.com/paceline/paceline/pkg/workflow"
)

// triageState models a support ticket moving through a triage flow.
type triageState struct {
	Ticket   string   `json:"ticket"`
	Queue    string   `json:"queue"`
	Handled  []string `json:"handled"`
	Attempts int      `json:"attempts"`
	Done     bool     `json:"done"`
}

func (s triageState) Validate() error {
	if s.Ticket == "" {
		return errors.New("ticket cannot be empty")
	}
	return nil
}

func (s triageState) Merge(other triageState) triageState {
	if other.Ticket != "" {
		s.Ticket = other.Ticket
	}
	if other.Queue != "" {
		s.Queue = other.Queue
	}
	if other.Attempts != 0 {
		s.Attempts = other.Attempts
	}
	if other.Done {
		s.Done = true
	}
	if len(other.Handled) > 0 {
		s.Handled = append(s.Handled, other.Handled...)
	}
	return s
}

// mark returns an agent that appends its own name to the handled trail.
func mark(name string) *agents.BaseAgent[triageState] {
	return agents.NewSimpleAgent(name,
		func(_ context.Context, _ triageState, _ types.Config[triageState]) (types.NodeResponse[triageState], error) {
			return types.NodeResponse[triageState]{
				State:  triageState{Handled: []string{name}},
				Status: types.StatusCompleted,
			}, nil
		}, nil)
}

func TestWorkflowLinearChain(t *testing.T) {
	t.Parallel()

	wf := workflow.NewBuilder[triageState]("linear-triage")
	err := wf.AddAgent(mark("intake")).
		AsEntryPoint().
		Then(mark("resolve")).
		Then(mark("notify")).
		End()
	require.NoError(t, err)

	app, err := workflow.NewApp(wf)
	require.NoError(t, err)

	out, err := app.Invoke(context.Background(), triageState{Ticket: "T-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"intake", "resolve", "notify"}, out.Handled)
}

func TestWorkflowRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	wf := workflow.NewBuilder[triageState]("strict")
	require.NoError(t, wf.AddAgent(mark("intake")).AsEntryPoint().End())

	app, err := workflow.NewApp(wf)
	require.NoError(t, err)

	_, err = app.Invoke(context.Background(), triageState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticket cannot be empty")
}

func TestWorkflowThenIf(t *testing.T) {
	t.Parallel()

	build := func() *workflow.Builder[triageState] {
		wf := workflow.NewBuilder[triageState]("severity-split")
		err := wf.AddAgent(mark("classify")).
			AsEntryPoint().
			ThenIf(
				func(_ context.Context, s triageState, _ types.Config[triageState]) bool {
					return s.Queue == "urgent"
				},
				mark("escalate"),
				mark("archive"),
			).
			End()
		require.NoError(t, err)
		return wf
	}

	urgent, err := workflow.NewApp(build())
	require.NoError(t, err)
	out, err := urgent.Invoke(context.Background(), triageState{Ticket: "T-2", Queue: "urgent"})
	require.NoError(t, err)
	assert.Equal(t, []string{"classify", "escalate"}, out.Handled)

	regular, err := workflow.NewApp(build())
	require.NoError(t, err)
	out, err = regular.Invoke(context.Background(), triageState{Ticket: "T-3", Queue: "backlog"})
	require.NoError(t, err)
	assert.Equal(t, []string{"classify", "archive"}, out.Handled)
}

func TestWorkflowOnCondition(t *testing.T) {
	t.Parallel()

	build := func() (*workflow.App[triageState], error) {
		wf := workflow.NewBuilder[triageState]("router")
		err := wf.AddAgent(mark("route")).
			AsEntryPoint().
			OnCondition(
				func(_ context.Context, s triageState, _ types.Config[triageState]) string {
					return s.Queue
				},
				map[string]workflow.Agent[triageState]{
					"billing": mark("billing-desk"),
					"outage":  mark("outage-desk"),
				},
			).
			End()
		if err != nil {
			return nil, err
		}
		return workflow.NewApp(wf)
	}

	app, err := build()
	require.NoError(t, err)
	out, err := app.Invoke(context.Background(), triageState{Ticket: "T-4", Queue: "outage"})
	require.NoError(t, err)
	assert.Equal(t, []string{"route", "outage-desk"}, out.Handled)

	// An unknown branch key ends the workflow after the router
	app, err = build()
	require.NoError(t, err)
	out, err = app.Invoke(context.Background(), triageState{Ticket: "T-5", Queue: "misc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"route"}, out.Handled)
}

func TestWorkflowLoopWhile(t *testing.T) {
	t.Parallel()

	retry := agents.NewSimpleAgent("retry",
		func(_ context.Context, s triageState, _ types.Config[triageState]) (types.NodeResponse[triageState], error) {
			return types.NodeResponse[triageState]{
				State:  triageState{Attempts: s.Attempts + 1, Handled: []string{"retry"}},
				Status: types.StatusCompleted,
			}, nil
		}, nil)

	wf := workflow.NewBuilder[triageState]("retry-loop")
	err := wf.AddAgent(retry).
		AsEntryPoint().
		LoopWhile(func(_ context.Context, s triageState, _ types.Config[triageState]) bool {
			return s.Attempts < 3
		}).
		Then(mark("close")).
		End()
	require.NoError(t, err)

	app, err := workflow.NewApp(wf)
	require.NoError(t, err)

	out, err := app.Invoke(context.Background(), triageState{Ticket: "T-6"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, []string{"retry", "retry", "retry", "close"}, out.Handled)
}

func TestWorkflowParallelJoin(t *testing.T) {
	t.Parallel()

	// Every branch signals arrival, then waits until all three overlap.
	// A sequential engine would park the first branch forever.
	ready := make(chan struct{}, 3)
	release := make(chan struct{})
	go func() {
		for range 3 {
			<-ready
		}
		close(release)
	}()

	branch := func(name string) *agents.BaseAgent[triageState] {
		return agents.NewSimpleAgent(name,
			func(_ context.Context, _ triageState, _ types.Config[triageState]) (types.NodeResponse[triageState], error) {
				ready <- struct{}{}
				select {
				case <-release:
				case <-time.After(2 * time.Second):
					return types.NodeResponse[triageState]{}, errors.New("branches did not run concurrently")
				}
				return types.NodeResponse[triageState]{
					State:  triageState{Handled: []string{name}},
					Status: types.StatusCompleted,
				}, nil
			}, nil)
	}

	wf := workflow.NewBuilder[triageState]("parallel-checks")
	err := wf.AddAgent(mark("open")).
		AsEntryPoint().
		ThenAll(branch("security"), branch("billing"), branch("abuse")).
		Join(func(_ context.Context, states []triageState, _ types.Config[triageState]) (types.NodeResponse[triageState], error) {
			// The collected deltas arrive in declaration order
			names := make([]string, 0, len(states))
			for _, s := range states {
				names = append(names, s.Handled...)
			}
			return types.NodeResponse[triageState]{
				State:  triageState{Handled: []string{"joined:" + strings.Join(names, "+")}},
				Status: types.StatusCompleted,
			}, nil
		}).
		Then(mark("close")).
		End()
	require.NoError(t, err)

	app, err := workflow.NewApp(wf)
	require.NoError(t, err)

	out, err := app.Invoke(context.Background(), triageState{Ticket: "T-7"})
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "joined:security+billing+abuse", "close"}, out.Handled)
}

func TestWorkflowSubWorkflow(t *testing.T) {
	t.Parallel()

	sub := workflow.NewBuilder[triageState]("deep-dive")
	err := sub.AddAgent(agents.NewSimpleAgent("inspect",
		func(_ context.Context, _ triageState, _ types.Config[triageState]) (types.NodeResponse[triageState], error) {
			return types.NodeResponse[triageState]{
				State:  triageState{Queue: "inspected"},
				Status: types.StatusCompleted,
			}, nil
		}, nil)).
		AsEntryPoint().
		End()
	require.NoError(t, err)

	wf := workflow.NewBuilder[triageState]("with-sub")
	err = wf.AddAgent(mark("intake")).
		AsEntryPoint().
		ThenSubWorkflow(sub).
		Then(mark("wrap-up")).
		End()
	require.NoError(t, err)

	app, err := workflow.NewApp(wf)
	require.NoError(t, err)

	out, err := app.Invoke(context.Background(), triageState{Ticket: "T-8"})
	require.NoError(t, err)
	assert.Equal(t, "inspected", out.Queue)
	assert.Equal(t, []string{"intake", "wrap-up"}, out.Handled)
}

type recordingCallback struct {
	completed []triageState
	failures  []error
}

func (c *recordingCallback) OnComplete(_ context.Context, out triageState) error {
	c.completed = append(c.completed, out)
	return nil
}

func (c *recordingCallback) OnError(_ context.Context, err error) error {
	c.failures = append(c.failures, err)
	return nil
}

func TestAppCallbacks(t *testing.T) {
	t.Parallel()

	t.Run("on_complete", func(t *testing.T) {
		t.Parallel()
		cb := &recordingCallback{}

		wf := workflow.NewBuilder[triageState]("cb-ok")
		require.NoError(t, wf.AddAgent(mark("only")).AsEntryPoint().End())

		app, err := workflow.NewApp(wf, workflow.WithCallback[triageState](cb))
		require.NoError(t, err)

		_, err = app.Invoke(context.Background(), triageState{Ticket: "T-9"})
		require.NoError(t, err)
		require.Len(t, cb.completed, 1)
		assert.Equal(t, []string{"only"}, cb.completed[0].Handled)
		assert.Empty(t, cb.failures)
	})

	t.Run("on_error", func(t *testing.T) {
		t.Parallel()
		cb := &recordingCallback{}

		failing := agents.NewSimpleAgent("broken",
			func(_ context.Context, _ triageState, _ types.Config[triageState]) (types.NodeResponse[triageState], error) {
				return types.NodeResponse[triageState]{}, errors.New("downstream outage")
			}, nil)

		wf := workflow.NewBuilder[triageState]("cb-fail")
		require.NoError(t, wf.AddAgent(failing).AsEntryPoint().End())

		app, err := workflow.NewApp(wf, workflow.WithCallback[triageState](cb))
		require.NoError(t, err)

		_, err = app.Invoke(context.Background(), triageState{Ticket: "T-10"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invoke: workflow failed")
		require.Len(t, cb.failures, 1)
		assert.Empty(t, cb.completed)
	})
}

func TestAppPendingResume(t *testing.T) {
	t.Parallel()

	// Suspends on first pass, completes once the queue carries the approval
	approval := agents.NewSimpleAgent("approval",
		func(_ context.Context, s triageState, _ types.Config[triageState]) (types.NodeResponse[triageState], error) {
			if s.Queue != "approved" {
				return types.NodeResponse[triageState]{
					State:  triageState{Queue: "awaiting-approval"},
					Status: types.StatusPending,
				}, nil
			}
			return types.NodeResponse[triageState]{
				State:  triageState{Done: true, Handled: []string{"approval"}},
				Status: types.StatusCompleted,
			}, nil
		}, nil)

	wf := workflow.NewBuilder[triageState]("approval-flow")
	err := wf.AddAgent(mark("intake")).
		AsEntryPoint().
		Then(approval).
		Then(mark("announce")).
		End()
	require.NoError(t, err)

	store := checkpoints.NewMemoryStore[triageState]()
	app, err := workflow.NewApp(wf,
		workflow.WithCheckpointStore[triageState](store),
		workflow.WithDebug[triageState](),
	)
	require.NoError(t, err)

	ctx := context.Background()
	thread := workflow.WithThreadID[triageState]("ticket-11")

	first, err := app.Invoke(ctx, triageState{Ticket: "T-11"}, thread)
	require.NoError(t, err)
	assert.Equal(t, "awaiting-approval", first.Queue)
	assert.False(t, first.Done)

	saved, err := store.Load(ctx, types.CheckpointKey{GraphID: app.ID(), ThreadID: "ticket-11"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, saved.Meta.Status)

	// Second invocation resumes at the pending node with the approval set
	second, err := app.Invoke(ctx, triageState{Ticket: "T-11", Queue: "approved"}, thread)
	require.NoError(t, err)
	assert.True(t, second.Done)
	assert.Contains(t, second.Handled, "approval")
	assert.Contains(t, second.Handled, "announce")
}

func TestBuilderReportsErrors(t *testing.T) {
	t.Parallel()

	t.Run("duplicate_agent", func(t *testing.T) {
		t.Parallel()
		wf := workflow.NewBuilder[triageState]("dup")
		wf.AddAgent(mark("same"))
		fa := wf.AddAgent(mark("same"))
		require.Error(t, fa.Err())
		assert.Contains(t, fa.Err().Error(), "already exists")
	})

	t.Run("empty_parallel_group", func(t *testing.T) {
		t.Parallel()
		wf := workflow.NewBuilder[triageState]("empty-fan")
		fa := wf.AddAgent(mark("start")).AsEntryPoint().ThenAll().
			Join(func(_ context.Context, states []triageState, _ types.Config[triageState]) (types.NodeResponse[triageState], error) {
				return types.NodeResponse[triageState]{}, nil
			})
		require.Error(t, fa.Err())
	})
}
