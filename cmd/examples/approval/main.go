// A workflow that suspends at an approval gate and resumes on the same
// thread once an operator signs off. The checkpoint store carries the
// state across the two invocations.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/paceline/paceline/pkg/agents"
	"github.com/paceline/paceline/pkg/checkpoints"
	"github.com/paceline/paceline/pkg/types"
	"github.com/paceline/paceline/pkg/workflow"
)

// CampaignState is a draft announcement waiting for a human go-ahead.
type CampaignState struct {
	Draft    string
	Approved bool
	Sent     bool
}

func (s CampaignState) Validate() error {
	if s.Draft == "" {
		return errors.New("draft cannot be empty")
	}
	return nil
}

func (s CampaignState) Merge(other CampaignState) CampaignState {
	if other.Draft != "" {
		s.Draft = other.Draft
	}
	s.Approved = s.Approved || other.Approved
	s.Sent = s.Sent || other.Sent
	return s
}

func makeComposeAgent() workflow.Agent[CampaignState] {
	return agents.NewSimpleAgent("compose", func(_ context.Context, s CampaignState, _ types.Config[CampaignState]) (types.NodeResponse[CampaignState], error) {
		s.Draft = s.Draft + " (formatted for the wire)"
		return types.NodeResponse[CampaignState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)
}

// The gate parks the thread until someone approves.
func makeGateAgent() workflow.Agent[CampaignState] {
	return agents.NewSimpleAgent("gate", func(_ context.Context, s CampaignState, _ types.Config[CampaignState]) (types.NodeResponse[CampaignState], error) {
		if !s.Approved {
			fmt.Println("gate: holding the campaign for approval")
			return types.NodeResponse[CampaignState]{State: s, Status: types.StatusPending}, nil
		}
		fmt.Println("gate: approval on file, releasing")
		return types.NodeResponse[CampaignState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)
}

func makeSendAgent() workflow.Agent[CampaignState] {
	return agents.NewSimpleAgent("send", func(_ context.Context, s CampaignState, _ types.Config[CampaignState]) (types.NodeResponse[CampaignState], error) {
		s.Sent = true
		fmt.Println("send:", s.Draft)
		return types.NodeResponse[CampaignState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)
}

func main() {
	wf := workflow.NewBuilder[CampaignState]("campaign")
	err := wf.AddAgent(makeComposeAgent()).
		AsEntryPoint().
		Then(makeGateAgent()).
		Then(makeSendAgent()).
		End()
	if err != nil {
		panic(fmt.Sprintf("Failed building workflow: %v", err))
	}

	app, err := workflow.NewApp(wf,
		workflow.WithCheckpointStore[CampaignState](checkpoints.NewMemoryStore[CampaignState]()),
		workflow.WithDebug[CampaignState](),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed creating app: %v", err))
	}

	thread := workflow.WithThreadID[CampaignState]("campaign-7")

	// First pass stops at the gate
	held, err := app.Invoke(context.Background(),
		CampaignState{Draft: "Launch day is Thursday"}, thread)
	if err != nil {
		fmt.Println("Invoke failed:", err)
		return
	}
	fmt.Printf("after first run: approved=%t sent=%t\n\n", held.Approved, held.Sent)

	// Approval arrives, the same thread picks up at the gate
	final, err := app.Invoke(context.Background(),
		CampaignState{Draft: held.Draft, Approved: true}, thread)
	if err != nil {
		fmt.Println("Resume failed:", err)
		return
	}
	fmt.Printf("after resume: approved=%t sent=%t\n", final.Approved, final.Sent)
}
