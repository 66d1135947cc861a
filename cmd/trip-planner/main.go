package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ai-trip-planner/internal/api"
	"ai-trip-planner/internal/app"
	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/database"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/orchestrator"
	"ai-trip-planner/internal/shared"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(ctx, cfg)
	case "chat":
		runChat(ctx, cfg)
	case "metrics":
		runMetricsReport(cfg)
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])
		runMetricsCleanup(cfg, *days)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg *config.Config) {
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	srv := api.NewServer(
		application.Orchestrator,
		application.Store,
		application.MetricsStore,
		cfg.JWTSecret,
		time.Duration(cfg.SessionTTLSeconds)*time.Second,
		"data",
	).WithHistory(application.History)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Serving HTTP on %s", cfg.HTTPAddr)
	if err := srv.Start(ctx, cfg.HTTPAddr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func runChat(ctx context.Context, cfg *config.Config) {
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	sessionID := application.Orchestrator.NewSession()
	fmt.Println("🧳 Trip planner ready. Where would you like to go? (ctrl-d to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		utterance := strings.TrimSpace(scanner.Text())
		if utterance == "" {
			continue
		}

		resp, err := application.Orchestrator.HandleTurn(ctx, sessionID, utterance)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		recordMetas(application.MetricsStore, resp.Metas)
		printResponse(resp)
	}
}

func printResponse(resp orchestrator.Response) {
	switch resp.Status {
	case orchestrator.StatusQuestion:
		fmt.Println(resp.Question)
	default:
		fmt.Println(resp.Message)
		for _, w := range resp.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
		if resp.Evaluation != nil && resp.Evaluation.Grounding != nil {
			for _, u := range resp.Evaluation.Grounding.UncertainData {
				fmt.Printf("  ℹ %s\n", u)
			}
		}
	}
}

func recordMetas(store *metrics.Store, metas []shared.AgentMeta) {
	for _, m := range metas {
		if err := store.RecordMeta(m); err != nil {
			log.Printf("Warning: failed to record metrics: %v", err)
		}
	}
}

func runMetricsReport(cfg *config.Config) {
	store, err := openMetrics(cfg)
	if err != nil {
		log.Fatalf("Failed to open metrics store: %v", err)
	}
	defer store.Close()

	usage, err := store.GetDailyUsage(7)
	if err != nil {
		log.Fatalf("Failed to fetch usage: %v", err)
	}

	fmt.Println("Daily token usage (last 7 days):")
	if len(usage) == 0 {
		fmt.Println("  no data yet")
	}
	for _, d := range usage {
		fmt.Printf("  %s: %d prompt + %d completion tokens over %d executions\n",
			d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
	}
}

func runMetricsCleanup(cfg *config.Config, days int) {
	store, err := openMetrics(cfg)
	if err != nil {
		log.Fatalf("Failed to open metrics store: %v", err)
	}
	defer store.Close()

	affected, err := store.Cleanup(days)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}
	fmt.Printf("Successfully removed %d old metric records.\n", affected)
}

func openMetrics(cfg *config.Config) (*metrics.Store, error) {
	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return metrics.NewStore(db.SQL), nil
}

func printUsage() {
	fmt.Println("Usage: trip-planner <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  serve              Run the HTTP API")
	fmt.Println("  chat               Interactive planning session on stdin")
	fmt.Println("  metrics            Print daily token usage")
	fmt.Println("  metrics-cleanup    Remove old metric records (-days N)")
}
