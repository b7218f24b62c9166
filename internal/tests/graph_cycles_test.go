package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paceline/paceline/internal/graph"
	"github.com/paceline/paceline/pkg/checkpoints"
	"github.com/paceline/paceline/pkg/types"
)

// RefineState tracks a draft moving through repeated refinement passes.
type RefineState struct {
	Draft  string
	Passes int
	Trail  []string
}

func (s RefineState) Validate() error {
	if s.Draft == "" {
		return errors.New("draft cannot be empty")
	}
	return nil
}

func (s RefineState) Merge(other RefineState) RefineState {
	draft := s.Draft
	if other.Draft != "" {
		draft = other.Draft
	}
	passes := s.Passes
	if other.Passes != 0 {
		passes = other.Passes
	}
	trail := s.Trail
	if len(other.Trail) > 0 {
		trail = append(trail, other.Trail...)
	}

	return RefineState{
		Draft:  draft,
		Passes: passes,
		Trail:  trail,
	}
}

func TestRefinementCycles(t *testing.T) {
	t.Parallel()

	t.Run("max_steps_cuts_the_loop", func(t *testing.T) {
		t.Parallel()
		g := graph.NewGraph[RefineState]("refine-loop")
		store := checkpoints.NewMemoryStore[RefineState]()

		require.NoError(t, g.AddNode("prepare", func(_ context.Context, s RefineState, _ types.Config[RefineState]) (types.NodeResponse[RefineState], error) {
			newState := RefineState{
				Draft:  s.Draft,
				Passes: s.Passes,
				Trail:  []string{"prepared"},
			}
			return types.NodeResponse[RefineState]{State: newState, Status: types.StatusCompleted}, nil
		}, nil))

		require.NoError(t, g.AddNode("refine", func(_ context.Context, s RefineState, _ types.Config[RefineState]) (types.NodeResponse[RefineState], error) {
			newState := RefineState{
				Draft:  fmt.Sprintf("revision-%d", s.Passes+1),
				Passes: s.Passes + 1,
				Trail:  []string{fmt.Sprintf("refine pass %d", s.Passes+1)},
			}
			return types.NodeResponse[RefineState]{State: newState, Status: types.StatusCompleted}, nil
		}, nil))

		require.NoError(t, g.AddNode("check", func(_ context.Context, s RefineState, _ types.Config[RefineState]) (types.NodeResponse[RefineState], error) {
			newState := RefineState{
				Trail: []string{fmt.Sprintf("check pass %d", s.Passes)},
			}
			return types.NodeResponse[RefineState]{State: newState, Status: types.StatusCompleted}, nil
		}, nil))

		// Cycle: prepare -> refine -> check -> refine
		require.NoError(t, g.AddEdge("prepare", "refine", nil))
		require.NoError(t, g.AddEdge("refine", "check", nil))
		require.NoError(t, g.AddEdge("check", "refine", nil))
		require.NoError(t, g.SetEntryPoint("prepare"))
		require.NoError(t, g.SetEndPoint("check"))

		require.NoError(t, g.AddBranch("check", func(_ context.Context, s RefineState, _ types.Config[RefineState]) string {
			if s.Passes >= 3 {
				return graph.END
			}
			return "refine"
		}, "", nil))

		testCases := []struct {
			name          string
			maxSteps      int
			expectedState RefineState
			expectError   bool
		}{
			{
				name:     "single_pass",
				maxSteps: 3,
				expectedState: RefineState{
					Draft:  "revision-1",
					Passes: 1,
					Trail: []string{
						"prepared",
						"refine pass 1",
						"check pass 1",
					},
				},
				expectError: true,
			},
			{
				name:     "three_passes",
				maxSteps: 7,
				expectedState: RefineState{
					Draft:  "revision-3",
					Passes: 3,
					Trail: []string{
						"prepared",
						"refine pass 1",
						"check pass 1",
						"refine pass 2",
						"check pass 2",
						"refine pass 3",
						"check pass 3",
					},
				},
				expectError: false,
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				compiled, err := g.Compile(
					graph.WithMaxSteps[RefineState](tc.maxSteps),
					graph.WithCheckpointStore[RefineState](store),
					graph.WithDebug[RefineState](),
				)
				require.NoError(t, err)

				result, err := compiled.Run(
					context.Background(),
					RefineState{Draft: "outline"},
					graph.WithThreadID[RefineState](tc.name),
				)

				if tc.expectError {
					require.Error(t, err)
					require.Contains(t, err.Error(), "max steps reached")
				} else {
					require.NoError(t, err)
				}

				require.Equal(t, tc.expectedState.Draft, result.Draft)
				require.Equal(t, tc.expectedState.Passes, result.Passes)
				require.Equal(t, tc.expectedState.Trail, result.Trail)

				// The last checkpoint sits one step short of the cutoff
				checkpoint, err := store.Load(context.Background(), types.CheckpointKey{
					GraphID:  g.ID(),
					ThreadID: tc.name,
				})
				require.NoError(t, err)
				require.Equal(t, tc.maxSteps, checkpoint.Meta.Steps+1)
			})
		}
	})

	t.Run("conditional_exit", func(t *testing.T) {
		t.Parallel()
		g := graph.NewGraph[RefineState]("revise-until-done")
		store := checkpoints.NewMemoryStore[RefineState]()

		require.NoError(t, g.AddNode("open", func(_ context.Context, s RefineState, _ types.Config[RefineState]) (types.NodeResponse[RefineState], error) {
			s.Trail = append(s.Trail, "opened")
			return types.NodeResponse[RefineState]{State: s, Status: types.StatusCompleted}, nil
		}, nil))

		require.NoError(t, g.AddNode("revise", func(_ context.Context, s RefineState, _ types.Config[RefineState]) (types.NodeResponse[RefineState], error) {
			newState := RefineState{
				Trail:  []string{fmt.Sprintf("revise pass %d", s.Passes+1)},
				Passes: s.Passes + 1,
			}
			return types.NodeResponse[RefineState]{
				State:  newState,
				Status: types.StatusCompleted,
			}, nil
		}, nil))

		require.NoError(t, g.AddNode("close", func(_ context.Context, _ RefineState, _ types.Config[RefineState]) (types.NodeResponse[RefineState], error) {
			newState := RefineState{
				Trail: []string{"closed"},
				Draft: "final",
			}
			return types.NodeResponse[RefineState]{State: newState, Status: types.StatusCompleted}, nil
		}, nil))

		require.NoError(t, g.AddEdge("open", "revise", nil))
		require.NoError(t, g.AddEdge("revise", "revise", nil))
		require.NoError(t, g.AddEdge("revise", "close", nil))
		require.NoError(t, g.AddEdge("close", graph.END, nil))

		// Break the cycle after three passes
		require.NoError(t, g.AddBranch("revise", func(_ context.Context, s RefineState, _ types.Config[RefineState]) string {
			if s.Passes >= 3 {
				return "close"
			}
			return "revise"
		}, "", nil))

		require.NoError(t, g.SetEntryPoint("open"))

		compiled, err := g.Compile(
			graph.WithMaxSteps[RefineState](10),
			graph.WithCheckpointStore[RefineState](store),
			graph.WithDebug[RefineState](),
		)
		require.NoError(t, err)

		result, err := compiled.Run(
			context.Background(),
			RefineState{Draft: "outline"},
			graph.WithThreadID[RefineState]("revise-until-done"),
		)
		require.NoError(t, err)

		expectedTrail := []string{
			"opened",
			"revise pass 1",
			"revise pass 2",
			"revise pass 3",
			"closed",
		}
		require.Equal(t, "final", result.Draft)
		require.Equal(t, 3, result.Passes)
		require.Equal(t, expectedTrail, result.Trail)
	})

	t.Run("concurrent_threads", func(t *testing.T) {
		t.Parallel()
		g := graph.NewGraph[RefineState]("spinning-desk")
		store := checkpoints.NewMemoryStore[RefineState]()

		require.NoError(t, g.AddNode("spin", func(_ context.Context, s RefineState, _ types.Config[RefineState]) (types.NodeResponse[RefineState], error) {
			time.Sleep(10 * time.Millisecond)
			newState := RefineState{
				Trail:  []string{fmt.Sprintf("spin-%d", s.Passes)},
				Passes: s.Passes + 1,
			}
			return types.NodeResponse[RefineState]{State: newState, Status: types.StatusCompleted}, nil
		}, nil))

		require.NoError(t, g.AddEdge("spin", "spin", nil))
		require.NoError(t, g.SetEntryPoint("spin"))
		require.NoError(t, g.SetEndPoint("spin"))

		compiled, err := g.Compile(
			graph.WithMaxSteps[RefineState](5),
			graph.WithCheckpointStore[RefineState](store),
			graph.WithDebug[RefineState](),
		)
		require.NoError(t, err)

		threads := []string{"desk-1", "desk-2", "desk-3"}
		for _, threadID := range threads {
			t.Run(threadID, func(t *testing.T) {
				result, err := compiled.Run(
					context.Background(),
					RefineState{Draft: "brief-" + threadID},
					graph.WithThreadID[RefineState](threadID),
				)
				require.Error(t, err) // The self loop never exits on its own
				require.Len(t, result.Trail, 5)
				require.Contains(t, result.Draft, threadID)
			})
		}
	})
}
