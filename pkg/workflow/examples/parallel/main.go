package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paceline/paceline/pkg/agents"
	"github.com/paceline/paceline/pkg/types"
	"github.com/paceline/paceline/pkg/workflow"
)

// State collects the desk reports that make up a morning briefing.
type BriefingState struct {
	Dateline string
	Markets  string
	Weather  string
	Transit  string
	Bulletin string
}

// Implement GraphState interface
func (b BriefingState) Validate() error { return nil }
func (b BriefingState) Merge(other BriefingState) BriefingState {
	if other.Dateline != "" {
		b.Dateline = other.Dateline
	}
	if other.Markets != "" {
		b.Markets = other.Markets
	}
	if other.Weather != "" {
		b.Weather = other.Weather
	}
	if other.Transit != "" {
		b.Transit = other.Transit
	}
	if other.Bulletin != "" {
		b.Bulletin = other.Bulletin
	}
	return b
}

// Agents
func makeEditorAgent() workflow.Agent[BriefingState] {
	return agents.NewSimpleAgent("Editor", func(_ context.Context, s BriefingState, _ types.Config[BriefingState]) (types.NodeResponse[BriefingState], error) {
		s.Dateline = time.Now().Format("Monday, January 2")
		return types.NodeResponse[BriefingState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)
}

func makeMarketsDesk() workflow.Agent[BriefingState] {
	return agents.NewSimpleAgent("MarketsDesk", func(_ context.Context, s BriefingState, _ types.Config[BriefingState]) (types.NodeResponse[BriefingState], error) {
		// Simulate pulling the overnight numbers
		s.Markets = "futures flat ahead of the open"
		return types.NodeResponse[BriefingState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)
}

func makeWeatherDesk() workflow.Agent[BriefingState] {
	return agents.NewSimpleAgent("WeatherDesk", func(_ context.Context, s BriefingState, _ types.Config[BriefingState]) (types.NodeResponse[BriefingState], error) {
		s.Weather = "clear skies, high of 24"
		return types.NodeResponse[BriefingState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)
}

func makeTransitDesk() workflow.Agent[BriefingState] {
	return agents.NewSimpleAgent("TransitDesk", func(_ context.Context, s BriefingState, _ types.Config[BriefingState]) (types.NodeResponse[BriefingState], error) {
		s.Transit = "all lines running on schedule"
		return types.NodeResponse[BriefingState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)
}

func makePrinterAgent() workflow.Agent[BriefingState] {
	return agents.NewSimpleAgent("Printer", func(_ context.Context, s BriefingState, _ types.Config[BriefingState]) (types.NodeResponse[BriefingState], error) {
		fmt.Println("Printer: sending bulletin to subscribers")
		fmt.Println(s.Bulletin)
		return types.NodeResponse[BriefingState]{State: s, Status: types.StatusCompleted}, nil
	}, nil)
}

func main() {
	// Build the workflow
	wf := workflow.NewBuilder[BriefingState]("Morning-Briefing")

	editor := makeEditorAgent()
	printer := makePrinterAgent()

	err := wf.AddAgent(editor).
		AsEntryPoint().
		// ThenAll => the three desks report concurrently
		ThenAll(makeMarketsDesk(), makeWeatherDesk(), makeTransitDesk()).
		// Join => fold the desk deltas into one bulletin
		Join(func(_ context.Context, states []BriefingState, _ types.Config[BriefingState]) (types.NodeResponse[BriefingState], error) {
			merged := states[0]
			for i := 1; i < len(states); i++ {
				merged = merged.Merge(states[i])
			}
			merged.Bulletin = strings.Join([]string{
				"Briefing for " + merged.Dateline,
				"  markets: " + merged.Markets,
				"  weather: " + merged.Weather,
				"  transit: " + merged.Transit,
			}, "\n")
			return types.NodeResponse[BriefingState]{State: merged, Status: types.StatusCompleted}, nil
		}).
		Then(printer).
		End()
	if err != nil {
		panic(fmt.Sprintf("Failed building flow: %v", err))
	}

	// Create the application
	app, err := workflow.NewApp[BriefingState](wf, workflow.WithDebug[BriefingState]())
	if err != nil {
		panic(fmt.Sprintf("Failed creating app: %v", err))
	}

	// Run it
	result, err := app.Invoke(context.Background(), BriefingState{})
	if err != nil {
		fmt.Println("Invoke error:", err)
		return
	}
	fmt.Println("\nWorkflow done. Desks filed:", result.Markets != "", result.Weather != "", result.Transit != "")
}
