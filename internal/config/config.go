package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the configuration for the application.
type Config struct {
	GeminiAPIKey string
	GroqAPIKey   string
	OpenAIAPIKey string

	// Collaborator endpoints (optional; fallbacks are used when unset)
	POIAPIURL        string
	POIAPIKey        string
	KnowledgeBaseURL string

	DBPath   string
	HTTPAddr string
	// Secret for signing session bearer tokens on the HTTP surface.
	JWTSecret string

	SessionTTLSeconds int

	// Defaults applied when the clarifying-question budget runs out.
	DefaultCity         string
	DefaultDurationDays int
	DefaultPace         string
	DefaultInterests    []string

	// Telegram Config (optional for CLI, required for Bot)
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	groqAPIKey := os.Getenv("GROQ_API_KEY")
	if groqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}

	dbPath := os.Getenv("TRIP_DB_PATH")
	if dbPath == "" {
		dbPath = "data/trip-planner.db"
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	sessionTTL := 1800
	if v := os.Getenv("SESSION_TTL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL_SECONDS: %w", err)
		}
		sessionTTL = n
	}

	defaultCity := os.Getenv("DEFAULT_CITY")
	if defaultCity == "" {
		defaultCity = "Jaipur"
	}

	defaultDuration := 3
	if v := os.Getenv("DEFAULT_DURATION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_DURATION_DAYS: %w", err)
		}
		defaultDuration = n
	}

	defaultPace := os.Getenv("DEFAULT_PACE")
	if defaultPace == "" {
		defaultPace = "moderate"
	}

	defaultInterests := []string{"sightseeing", "food"}
	if v := os.Getenv("DEFAULT_INTERESTS"); v != "" {
		defaultInterests = splitCSV(v)
	}

	var allowedIDs []int64
	if v := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); v != "" {
		for _, part := range splitCSV(v) {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
			}
			allowedIDs = append(allowedIDs, id)
		}
	}

	var adminID int64
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		fmt.Sscanf(v, "%d", &adminID)
	}

	return &Config{
		GeminiAPIKey:           geminiAPIKey,
		GroqAPIKey:             groqAPIKey,
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		POIAPIURL:              os.Getenv("POI_API_URL"),
		POIAPIKey:              os.Getenv("POI_API_KEY"),
		KnowledgeBaseURL:       os.Getenv("KNOWLEDGE_BASE_URL"),
		DBPath:                 dbPath,
		HTTPAddr:               httpAddr,
		JWTSecret:              os.Getenv("JWT_SECRET"),
		SessionTTLSeconds:      sessionTTL,
		DefaultCity:            defaultCity,
		DefaultDurationDays:    defaultDuration,
		DefaultPace:            defaultPace,
		DefaultInterests:       defaultInterests,
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowedIDs,
		AdminTelegramID:        adminID,
	}, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
