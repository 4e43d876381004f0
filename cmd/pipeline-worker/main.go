// Package main provides the entry point for the temporal pipeline worker
package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/Caia-Tech/caia-tuner/internal/temporal/activities"
	"github.com/Caia-Tech/caia-tuner/internal/temporal/workflows"
	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

// TaskQueue is the queue the pipeline workflow and its worker share
const TaskQueue = "caia-tuner-pipeline"

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

	temporalClient, err := client.Dial(client.Options{
		HostPort: getEnv("TEMPORAL_HOST", "localhost:7233"),
	})
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, TaskQueue, worker.Options{
		// Phases share data files on disk, so activities run one at a time.
		MaxConcurrentActivityExecutionSize: 1,
	})

	w.RegisterWorkflow(workflows.PipelineWorkflow)

	a := activities.New(cfg)
	w.RegisterActivity(a.ScrapeActivity)
	w.RegisterActivity(a.GenerateQuestionsActivity)
	w.RegisterActivity(a.GenerateAnswersActivity)
	w.RegisterActivity(a.FormatDatasetActivity)
	w.RegisterActivity(a.QualityCheckActivity)
	w.RegisterActivity(a.FinetuneActivity)

	log.Printf("Pipeline worker listening on task queue %q", TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
