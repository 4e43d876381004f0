// Package main provides the entry point for question generation
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
	limit := flag.Int("limit", 0, "Maximum number of articles to process (0 = no limit)")
	sync := flag.Bool("sync", false, "Use synchronous completions instead of the batch API")
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

	result, err := pipeline.GenerateQuestions(ctx, cfg, pipeline.GenerateOptions{
		Limit:  *limit,
		Sync:   *sync,
		Resume: *resume,
	})
	if err != nil {
		log.Fatalf("Question generation failed: %v", err)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("QUESTION GENERATION COMPLETE")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Articles processed: %d\n", result.Articles)
	fmt.Printf("Question sets: %d\n", result.QuestionSets)
	fmt.Printf("Total questions: %d\n", result.TotalQuestions)
	fmt.Printf("Output: %s\n", cfg.Paths.Questions)
}
