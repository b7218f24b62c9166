package workflow

import (
	"fmt"

	"github.com/paceline/paceline/pkg/state"
)

// ensureAgent adds the agent to the graph, tolerating agents that are
// already registered under the same name.
func ensureAgent[T state.GraphState[T]](wf *Builder[T], agent Agent[T]) error {
	err := wf.graph.AddNode(agent.Name(), agent.Execute, agent.Metadata())
	if err != nil && !isDuplicateNodeError(err) {
		return fmt.Errorf("cannot ensure agent %q: %w", agent.Name(), err)
	}
	return nil
}
