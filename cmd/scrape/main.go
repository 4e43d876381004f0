// Package main provides the entry point for the helpdesk scraper
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Caia-Tech/caia-tuner/internal/pipeline"
	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	limit := flag.Int("limit", 0, "Maximum number of articles to scrape (0 = no limit)")
	resume := flag.Bool("resume", false, "Resume from checkpoint")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logging.SetupLogger(cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Scrape(ctx, cfg, pipeline.ScrapeOptions{
		Limit:  *limit,
		Resume: *resume,
	})
	if err != nil {
		log.Fatalf("Scraping failed: %v", err)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("SCRAPING COMPLETE")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Articles scraped: %d\n", result.Articles)
	fmt.Printf("Output: %s\n", result.OutputPath)
}
