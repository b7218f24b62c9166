// Command paceline serves the demo content pipeline and agents over
// HTTP, with every model call spaced on one shared pacer.
//
// Usage:
//
//	paceline serve --config paceline.yaml
//	paceline demo --text "Draft release notes ..."
//	paceline version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sort"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/tmc/langchaingo/llms"

	"github.com/paceline/paceline/internal/config"
	"github.com/paceline/paceline/internal/logging"
	"github.com/paceline/paceline/internal/server"
	"github.com/paceline/paceline/pkg/agents"
	"github.com/paceline/paceline/pkg/checkpoints"
	"github.com/paceline/paceline/pkg/content"
	"github.com/paceline/paceline/pkg/llm"
	"github.com/paceline/paceline/pkg/pacing"
	"github.com/paceline/paceline/pkg/workflow"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP server."`
	Demo    DemoCmd    `cmd:"" help:"Run the content pipeline once and print the result."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level override (debug, info, warn, error)."`
	LogFormat string `help:"Log format override (text, json)."`
}

// bootstrap loads configuration, applies CLI overrides and installs the
// process logger.
func bootstrap(cli *CLI) (config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return config.Config{}, err
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return config.Config{}, err
	}
	if _, err := logging.Setup(level, cfg.Logging.Format, os.Stderr); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// buildStack assembles the runtime: a pacer, the paced model behind it,
// the content pipeline app and the demo agents.
func buildStack(cfg config.Config) (*pacing.Pacer, *workflow.App[content.ContentState], map[string]*agents.LLMAgent, error) {
	pacer, err := pacing.New(
		pacing.WithDelay(cfg.Pacing.Delay),
		pacing.WithJitter(cfg.Pacing.Jitter),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	base, err := llm.New(llm.ProviderConfig{
		Provider:  cfg.Model.Provider,
		Model:     cfg.Model.Name,
		APIKeyEnv: cfg.Model.APIKeyEnv,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	model := llm.NewPacedModel(base, pacer)

	pipeline, err := content.NewPipeline(model,
		llms.WithTemperature(cfg.Model.Temperature),
		llms.WithMaxTokens(cfg.Model.MaxTokens),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	app, err := workflow.NewApp(pipeline,
		workflow.WithCheckpointStore[content.ContentState](checkpoints.NewMemoryStore[content.ContentState]()),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	return pacer, app, content.DemoAgents(model), nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Host string `help:"Bind address override."`
	Port int    `help:"Port override."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := bootstrap(cli)
	if err != nil {
		return err
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	pacer, app, demoAgents, err := buildStack(cfg)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr()
	srv := server.New(addr, pacer, app, demoAgents)

	fmt.Printf("paceline ready on http://%s\n", addr)
	fmt.Printf("   Health:   GET  http://%s/v1/healthz\n", addr)
	fmt.Printf("   Pacing:   GET  http://%s/v1/pacing\n", addr)
	fmt.Printf("   Pipeline: POST http://%s/v1/workflows/content/run\n", addr)
	names := make([]string, 0, len(demoAgents))
	for name := range demoAgents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("   Agent:    POST http://%s/v1/agents/%s/generate\n", addr, name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	slog.Info("server starting",
		"addr", addr,
		"provider", cfg.Model.Provider,
		"pacing_delay", cfg.Pacing.Delay,
		"pacing_jitter", cfg.Pacing.Jitter,
	)
	return srv.Start(ctx)
}

// DemoCmd runs the content pipeline once against the configured model.
type DemoCmd struct {
	Text   string `help:"Text to run through the pipeline." default:"${demo_text}"`
	Thread string `help:"Thread id for the run." default:"demo"`
}

func (c *DemoCmd) Run(cli *CLI) error {
	cfg, err := bootstrap(cli)
	if err != nil {
		return err
	}

	_, app, _, err := buildStack(cfg)
	if err != nil {
		return err
	}

	app.PrintGraph()

	result, err := app.Invoke(context.Background(),
		content.ContentState{Text: c.Text},
		workflow.WithThreadID[content.ContentState](c.Thread),
	)
	if err != nil {
		return err
	}

	fmt.Printf("Sentiment:    %s (score %d)\n", result.Sentiment, result.SentimentScore)
	fmt.Printf("Words:        %d (%d tokens)\n", result.WordCount, result.TokenCount)
	fmt.Printf("Reading time: %d min\n", result.ReadingTime)
	fmt.Printf("Summary:      %s\n", result.Summary)
	if result.Truncated {
		fmt.Println("(summary truncated to the word budget)")
	}
	return nil
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("paceline %s\n", version)
	return nil
}

const demoText = "The new release lands with excellent pacing controls and a " +
	"wonderful set of workflow primitives. Agents share one model budget, " +
	"calls are spaced on a single timeline, and the demo pipeline walks a " +
	"draft through sentiment analysis, reading time estimation and an " +
	"extractive summary. Nothing here needs a network connection, the " +
	"scripted model answers offline, and the whole flow stays fast, clear " +
	"and reliable even when several workers pull against the same pacer at " +
	"once. Try the server next and watch the pacing endpoint while a few " +
	"runs queue up behind each other."

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("paceline"),
		kong.Description("Paced multi-agent workflows on one model budget"),
		kong.UsageOnError(),
		kong.Vars{"demo_text": demoText},
	)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
