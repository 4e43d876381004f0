// Package main provides the entry point for fine-tuning
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
	dryRun := flag.Bool("dry-run", false, "Validate inputs without creating a job")
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

	result, err := pipeline.Finetune(ctx, cfg, *dryRun)
	if err != nil {
		log.Fatalf("Fine-tuning failed: %v", err)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	if result.DryRun {
		fmt.Println("DRY RUN COMPLETE")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("Training data validated. No job was created.")
		return
	}
	fmt.Println("FINE-TUNING COMPLETE")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Model: %s\n", result.ModelID)
	fmt.Printf("Model info: %s\n", cfg.Paths.FinetunedModel)
}
