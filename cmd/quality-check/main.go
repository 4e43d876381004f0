// Package main provides the entry point for the quality check
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

	result, err := pipeline.QualityCheck(ctx, cfg)
	if err != nil {
		log.Fatalf("Quality check failed: %v", err)
	}

	report := result.Report
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("QUALITY ASSURANCE COMPLETE")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Original examples: %d\n", result.Total)
	fmt.Printf("After validation: %d\n", result.Kept)
	fmt.Printf("Removed: %d\n", result.Total-result.Kept)

	fmt.Println("\nValidation results:")
	fmt.Printf("  - JSON validity: %d/%d\n", report.AutomatedChecks.JSONValidity.Passed, result.Total)
	fmt.Printf("  - Content length: %d/%d\n", report.AutomatedChecks.ContentLength.Passed, result.Total)
	fmt.Printf("  - Grounding rate: %.1f%% (sample of %d)\n",
		report.SemanticChecksSample.GroundingPassRate*100,
		report.SemanticChecksSample.SampleSize)

	fmt.Println("\nDeduplication:")
	fmt.Printf("  - Exact duplicates removed: %d\n", report.RemovalReasons.DuplicateExact)
	fmt.Printf("  - Near duplicates removed: %d\n", report.RemovalReasons.DuplicateNear)

	fmt.Println("\nRecommendations:")
	for _, rec := range report.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}

	fmt.Printf("\nOutput files:\n")
	fmt.Printf("  - %s\n", cfg.Paths.FinalTrainingData)
	fmt.Printf("  - %s\n", cfg.Paths.QualityReport)

	if !result.Passed {
		fmt.Println("\nValidation did not pass. Fine-tuning is not recommended.")
		os.Exit(1)
	}
}
