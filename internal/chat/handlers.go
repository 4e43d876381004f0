package chat

import (
	"os"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
)

// Handlers contains the HTTP handlers for the chat server
type Handlers struct {
	completer     Completer
	modelID       string
	systemPrompts map[string]string
	reportPath    string
	sessions      *SessionStore
	logger        zerolog.Logger
}

// NewHandlers creates a handlers instance bound to a fine-tuned model.
func NewHandlers(completer Completer, modelID string, cfg *config.Config) *Handlers {
	return &Handlers{
		completer:     completer,
		modelID:       modelID,
		systemPrompts: cfg.SystemPrompts,
		reportPath:    cfg.Paths.QualityReport,
		sessions:      NewSessionStore(),
		logger:        logging.GetLogger("chat-server"),
	}
}

// RegisterRoutes mounts all chat server routes on the app.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)
	api := app.Group("/api")
	api.Post("/chat", h.Chat)
	api.Get("/report", h.Report)
	api.Get("/prompts", h.Prompts)
}

// Health returns the service health status
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "caia-tuner-chat",
		"model":     h.modelID,
		"sessions":  h.sessions.Count(),
		"timestamp": time.Now().UTC(),
	})
}

// ChatRequest is one user turn. A missing session ID starts a new
// session; a system key different from the session's resets the history.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	System    string `json:"system"`
}

// ChatResponse carries the assistant reply
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	System    string `json:"system"`
}

// Chat handles one conversation turn against the fine-tuned model
func (h *Handlers) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Field 'message' is required",
		})
	}

	systemKey := req.System
	if systemKey == "" {
		systemKey = "default"
	}
	systemPrompt, ok := h.systemPrompts[systemKey]
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown system prompt: " + systemKey,
		})
	}

	session := h.sessions.Get(req.SessionID)
	if session == nil {
		session = h.sessions.Create(systemKey, systemPrompt)
		h.logger.Info().Str("session_id", session.ID).Str("system", systemKey).Msg("Session started")
	}

	// One turn at a time per session; the lock spans the completion
	// call so each turn sees the full prior history.
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.SystemKey != systemKey {
		session.reset(systemKey, systemPrompt)
		h.logger.Info().Str("session_id", session.ID).Str("system", systemKey).Msg("Session reset")
	}

	session.Messages = append(session.Messages, dataset.Message{Role: "user", Content: req.Message})

	reply, err := h.completer.Complete(c.Context(), h.modelID, session.Messages)
	if err != nil {
		// Drop the failed turn so a retry does not duplicate it
		session.Messages = session.Messages[:len(session.Messages)-1]
		h.logger.Error().Str("session_id", session.ID).Err(err).Msg("Completion failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Completion failed",
			"details": err.Error(),
		})
	}

	session.Messages = append(session.Messages, dataset.Message{Role: "assistant", Content: reply})

	return c.JSON(ChatResponse{
		SessionID: session.ID,
		Reply:     reply,
		System:    session.SystemKey,
	})
}

// Report serves the latest quality report
func (h *Handlers) Report(c *fiber.Ctx) error {
	data, err := os.ReadFile(h.reportPath)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Quality report not found. Run the quality check first.",
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// Prompts lists the configured system prompt keys
func (h *Handlers) Prompts(c *fiber.Ctx) error {
	keys := make([]string, 0, len(h.systemPrompts))
	for key := range h.systemPrompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return c.JSON(fiber.Map{"prompts": keys})
}
