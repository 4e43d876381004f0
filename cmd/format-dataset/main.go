// Package main provides the entry point for dataset formatting
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

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

	result, err := pipeline.FormatDataset(cfg)
	if err != nil {
		log.Fatalf("Formatting failed: %v", err)
	}

	meta := result.Metadata
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("DATASET FORMATTING COMPLETE")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Training examples: %d\n", meta.TotalExamples)
	fmt.Printf("Source articles: %d\n", meta.SourceArticles)
	fmt.Printf("Avg questions per article: %.1f\n", meta.AvgQuestionsPerArticle)
	fmt.Printf("Avg answer length: %.1f chars\n", meta.AvgAnswerLengthChars)
	fmt.Println("\nCollections covered:")
	for _, c := range meta.CollectionsCovered {
		fmt.Printf("  - %s: %d examples\n", c.Name, c.Examples)
	}
	fmt.Printf("\nOutput: %s\n", cfg.Paths.TrainingData)
}
