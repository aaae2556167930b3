package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"videorank/pipeline"
	"videorank/server"
	"videorank/shared/ai"
	"videorank/shared/config"
	"videorank/shared/monitoring"
	"videorank/shared/scheduler"
	"videorank/shared/storage"
	"videorank/youtube"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ytClient, err := youtube.NewClient(ctx, &cfg.YouTube)
	if err != nil {
		log.Fatalf("Failed to create YouTube client: %v", err)
	}
	transcripts := youtube.NewTranscriptClient(cfg.YouTube.RelevanceLanguage)

	rater, err := ai.NewRater(ctx, &cfg.AI)
	if err != nil {
		log.Fatalf("Failed to create rater: %v", err)
	}

	ranker := pipeline.New(ytClient, ytClient, transcripts, rater)

	if len(os.Args) > 2 && os.Args[1] == "--query" {
		if err := runOnce(ctx, ranker, os.Args[2]); err != nil {
			log.Fatalf("Failed to run: %v", err)
		}
		return
	}

	store, err := storage.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	if err := store.EnsureAdmin(cfg.Database.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	summarizer, err := ai.NewSummarizer(ctx, &cfg.AI)
	if err != nil {
		log.Fatalf("Failed to create summarizer: %v", err)
	}

	cacheTTL := time.Duration(cfg.Search.CacheTTLHours) * time.Hour
	sweeper := scheduler.NewSweeper(store, cfg.Search.PruneSchedule, cacheTTL)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf("Failed to start cache sweeper: %v", err)
	}

	monitor := monitoring.NewMonitor()
	srv := server.New(cfg, store, ranker, summarizer, transcripts, monitor)

	fmt.Printf("Listening on :%d\n", cfg.Server.Port)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// runOnce ranks a single query and prints the results, skipping the HTTP
// server entirely.
func runOnce(ctx context.Context, ranker *pipeline.Pipeline, query string) error {
	result, err := ranker.Rank(ctx, query, func(status string) {
		fmt.Println(status)
	})
	if err != nil {
		return err
	}

	if len(result.Videos) == 0 {
		if result.Candidates == 0 {
			fmt.Println("No videos found.")
		} else {
			fmt.Printf("Found %d videos but none had transcripts.\n", result.Candidates)
		}
		return nil
	}

	for i, rv := range result.Videos {
		fmt.Printf("\n%d. %s\n   %s\n", i+1, rv.Video.Title, rv.Video.URL)
		fmt.Println(rv.Rating.Explanation)
	}
	return nil
}
