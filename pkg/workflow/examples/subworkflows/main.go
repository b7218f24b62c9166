package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/paceline/paceline/pkg/agents"
	"github.com/paceline/paceline/pkg/types"
	"github.com/paceline/paceline/pkg/workflow"
)

type DispatchState struct {
	Copy    string
	Clean   bool
	Cleared bool
}

func (d DispatchState) Validate() error { return nil }
func (d DispatchState) Merge(other DispatchState) DispatchState {
	if other.Copy != "" {
		d.Copy = other.Copy
	}
	d.Clean = d.Clean || other.Clean
	d.Cleared = d.Cleared || other.Cleared
	return d
}

// Main flow's starting agent: file some wire copy
func makeReporterAgent() workflow.Agent[DispatchState] {
	return agents.NewSimpleAgent("Reporter", func(_ context.Context, s DispatchState, _ types.Config[DispatchState]) (types.NodeResponse[DispatchState], error) {
		s.Copy = "City council approves the harbor ferry expansion after a late session"
		return types.NodeResponse[DispatchState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)
}

// After the standards desk is done, the wire agent moves the copy
func makeWireAgent() workflow.Agent[DispatchState] {
	return agents.NewSimpleAgent("Wire", func(_ context.Context, s DispatchState, _ types.Config[DispatchState]) (types.NodeResponse[DispatchState], error) {
		if s.Cleared {
			fmt.Println("Moving to the wire:", s.Copy)
		} else {
			fmt.Println("Copy held, standards desk did not clear it")
		}
		return types.NodeResponse[DispatchState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)
}

// The standards desk is its own two-step flow:
//
//	ScrubCopy -> GrantClearance -> end
//	(Pretend it runs the house style and legal checks)
func buildStandardsSubWorkflow() *workflow.Builder[DispatchState] {
	sw := workflow.NewBuilder[DispatchState]("StandardsDesk")

	scrub := agents.NewSimpleAgent("ScrubCopy", func(_ context.Context, s DispatchState, _ types.Config[DispatchState]) (types.NodeResponse[DispatchState], error) {
		s.Clean = len(strings.Fields(s.Copy)) >= 5
		return types.NodeResponse[DispatchState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)

	clearance := agents.NewSimpleAgent("GrantClearance", func(_ context.Context, s DispatchState, _ types.Config[DispatchState]) (types.NodeResponse[DispatchState], error) {
		if s.Clean {
			s.Cleared = true
		}
		return types.NodeResponse[DispatchState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)

	err := sw.AddAgent(scrub).
		AsEntryPoint().
		Then(clearance).
		End()
	if err != nil {
		panic(fmt.Sprintf("Subflow build error: %v", err))
	}
	return sw
}

func main() {
	// Build the sub-flow (standards checks)
	standardsDesk := buildStandardsSubWorkflow()

	// Build the main flow
	mainFlow := workflow.NewBuilder[DispatchState]("NewsroomFlow")
	reporter := makeReporterAgent()
	wire := makeWireAgent()

	err := mainFlow.AddAgent(reporter).
		AsEntryPoint().
		// ThenSubWorkflow -> treat the entire standards desk as one "agent"
		ThenSubWorkflow(standardsDesk).
		Then(wire).
		End()
	if err != nil {
		panic(fmt.Sprintf("Main flow build error: %v", err))
	}

	// Compile and run
	app, err := workflow.NewApp[DispatchState](mainFlow, workflow.WithDebug[DispatchState]())
	if err != nil {
		panic(fmt.Sprintf("Failed to create app: %v", err))
	}

	final, err := app.Invoke(context.Background(), DispatchState{})
	if err != nil {
		fmt.Println("Run error:", err)
		return
	}
	fmt.Printf("\nFinal State => Clean:%t, Cleared:%t\n", final.Clean, final.Cleared)
}
