package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	coscientist "github.com/ai-coscientist/orchestrator"
	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/config"
	"github.com/ai-coscientist/orchestrator/internal/coserr"
	"github.com/ai-coscientist/orchestrator/internal/dashboard"
	"github.com/ai-coscientist/orchestrator/internal/events"
	"github.com/ai-coscientist/orchestrator/internal/notify"
)

func main() {
	goalFlag := flag.String("goal", "", "Research goal, or a path to a .txt/.md file containing it (required)")
	outputFlag := flag.String("output", "", "Write the result as pretty-printed JSON to this path")
	iterationsFlag := flag.Int("iterations", 10, "Maximum number of supervisor rounds")
	workersFlag := flag.Int("workers", 5, "Number of worker goroutines")
	modelFlag := flag.String("model", "gemini-2.0", "Model name; accepted but not passed to the model-call capability")
	temperatureFlag := flag.Float64("temperature", 0.7, "Sampling temperature; accepted but not passed to the model-call capability")
	seedFlag := flag.Int64("seed", 0, "RNG seed; 0 means a run-specific, non-reproducible seed")
	serveFlag := flag.Bool("serve", false, "Start the optional live-progress dashboard")
	dashboardAddrFlag := flag.String("dashboard-addr", ":8090", "Address the optional dashboard listens on")
	configFlag := flag.String("config", "", "Optional YAML RunConfig overlay")
	flag.Parse()

	goal, err := resolveGoal(*goalFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coscientist: %v\n", err)
		os.Exit(1)
	}

	cfg := config.RunConfig{
		Goal:          goal,
		MaxIterations: *iterationsFlag,
		NumWorkers:    *workersFlag,
		Model:         *modelFlag,
		Temperature:   *temperatureFlag,
		Seed:          *seedFlag,
		Serve:         *serveFlag,
		DashboardAddr: *dashboardAddrFlag,
	}
	if *configFlag != "" {
		overlay, err := config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "coscientist: load config %s: %v\n", *configFlag, err)
			os.Exit(1)
		}
		cfg = config.Merge(*overlay, cfg)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *dashboard.Hub
	if cfg.Serve {
		hub = dashboard.NewHub()
		go hub.Run()
		go func() {
			fmt.Printf("dashboard listening on %s\n", cfg.DashboardAddr)
			if err := http.ListenAndServe(cfg.DashboardAddr, hub.Router()); err != nil {
				fmt.Fprintf(os.Stderr, "dashboard server stopped: %v\n", err)
			}
		}()
	}

	runCfg := coscientist.RunConfig{
		Goal:                 cfg.Goal,
		MaxIterations:        cfg.MaxIterations,
		NumWorkers:           cfg.NumWorkers,
		Seed:                 cfg.Seed,
		HypothesisTarget:     cfg.HypothesisTarget,
		ProximityEveryRounds: cfg.ProximityEveryRounds,
	}
	if hub != nil {
		runCfg.OnStats = func(stats blackboard.Statistics) {
			hub.BroadcastStats(stats)
		}
		runCfg.OnEventBus = func(bus *events.Bus) {
			hub.SubscribeBus(ctx, bus)
		}
	}

	result, err := coscientist.Run(ctx, runCfg)
	if err != nil {
		if _, ok := err.(*coserr.ValidationError); ok {
			fmt.Fprintf(os.Stderr, "coscientist: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "coscientist: run failed: %v\n", err)
		os.Exit(1)
	}

	notify.New(nil).RunCompleted(result.Status, len(result.TopHypotheses))

	if *outputFlag != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "coscientist: marshal result: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outputFlag, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "coscientist: write output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("result written to %s\n", *outputFlag)
	}

	fmt.Printf("status=%s top_hypotheses=%d\n", result.Status, len(result.TopHypotheses))
}

// resolveGoal mirrors the teacher's base-path/file resolution idiom: if
// the flag value looks like a .txt/.md path that exists, read its
// contents; otherwise treat the flag value as the literal goal text.
func resolveGoal(raw string) (string, error) {
	if raw == "" {
		return "", coserr.NewValidationError("--goal is required")
	}

	if ext := strings.ToLower(filepath.Ext(raw)); ext == ".txt" || ext == ".md" {
		if _, err := os.Stat(raw); err == nil {
			data, err := os.ReadFile(raw)
			if err != nil {
				return "", fmt.Errorf("read goal file %s: %w", raw, err)
			}
			return strings.TrimSpace(string(data)), nil
		}
	}
	return raw, nil
}
