// Package main provides the entry point for the chat server
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/Caia-Tech/caia-tuner/internal/chat"
	"github.com/Caia-Tech/caia-tuner/internal/finetune"
	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	modelID := flag.String("model", "", "Model ID override (defaults to the fine-tuned model)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logging.SetupLogger(cfg.Logging); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	model := *modelID
	if model == "" {
		info, err := finetune.LoadModelInfo(cfg.Paths.FinetunedModel)
		if err != nil {
			log.Fatalf("No fine-tuned model found (%v). Run the finetune phase or pass -model.", err)
		}
		model = info.ModelID
	}

	completer, err := chat.NewOpenAICompleter()
	if err != nil {
		log.Fatalf("Failed to create completer: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName: "caia-tuner chat server",
	})
	app.Use(recover.New())
	app.Use(cors.New())

	chat.NewHandlers(completer, model, cfg).RegisterRoutes(app)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Chat server listening on %s (model %s)", addr, model)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
