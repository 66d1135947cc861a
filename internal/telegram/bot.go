// Package telegram exposes the planner as a Telegram bot over a webhook.
package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/orchestrator"
	"ai-trip-planner/internal/trip"
)

const turnTimeout = 2 * time.Minute

// Bot wraps the Telegram API around the orchestrator. Each chat maps to one
// planner session; /new starts the chat over.
type Bot struct {
	api          *tgbotapi.BotAPI
	orch         *orchestrator.Orchestrator
	metricsStore *metrics.Store
	cfg          *config.Config

	mu       sync.Mutex
	sessions map[int64]string // chat id -> session id
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, orch *orchestrator.Orchestrator, metricsStore *metrics.Store) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		orch:         orch,
		metricsStore: metricsStore,
		cfg:          cfg,
		sessions:     make(map[int64]string),
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}

	if !isAllowed {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	switch msg.Text {
	case "/metrics":
		b.handleMetricsRequest(msg)
		return
	case "/new", "/start":
		b.resetSession(msg.Chat.ID)
		b.send(msg.Chat.ID, "🧳 Fresh start! Where would you like to go?")
		return
	}

	b.handleTurn(msg)
}

func (b *Bot) handleTurn(msg *tgbotapi.Message) {
	statusText := "🗺 *Thinking...*"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	resp, err := b.orch.HandleTurn(ctx, b.sessionFor(msg.Chat.ID), msg.Text)
	if err != nil {
		// An expired session gets replaced transparently.
		if trip.KindOf(err) == trip.KindSessionNotFound {
			b.resetSession(msg.Chat.ID)
			resp, err = b.orch.HandleTurn(ctx, b.sessionFor(msg.Chat.ID), msg.Text)
		}
	}

	var finalText string
	if err != nil {
		log.Printf("Error handling turn: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Something went wrong:*\n```\n%v\n```", safeErr)
	} else {
		b.recordMetrics(resp)
		finalText = formatResponse(resp)
	}

	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

// sessionFor returns the chat's session id, creating one on first contact.
func (b *Bot) sessionFor(chatID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := b.sessions[chatID]; ok {
		return id
	}
	id := b.orch.NewSession()
	b.sessions[chatID] = id
	return id
}

func (b *Bot) resetSession(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[chatID] = b.orch.NewSession()
}

func formatResponse(resp orchestrator.Response) string {
	switch resp.Status {
	case orchestrator.StatusQuestion:
		return "❓ " + resp.Question
	case orchestrator.StatusSuperseded:
		return "_Handled your newer message instead._"
	default:
		var sb strings.Builder
		sb.WriteString(resp.Message)
		if len(resp.Warnings) > 0 {
			sb.WriteString("\n⚠️ ")
			sb.WriteString(strings.Join(resp.Warnings, "\n⚠️ "))
		}
		if resp.Evaluation != nil && resp.Evaluation.Grounding != nil {
			for _, u := range resp.Evaluation.Grounding.UncertainData {
				sb.WriteString("\nℹ️ " + u)
			}
		}
		return sb.String()
	}
}

func (b *Bot) recordMetrics(resp orchestrator.Response) {
	if b.metricsStore == nil {
		return
	}
	for _, m := range resp.Metas {
		_ = b.metricsStore.RecordMeta(m)
		// Alert on context bloat
		if m.Usage.PromptTokens > 4000 {
			alert := fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d", m.AgentName, m.Usage.Model, m.Usage.PromptTokens)
			b.sendAdminAlert(alert)
		}
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "⛔ *Access Denied*: Admin only."))
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	if b.metricsStore == nil {
		b.send(chatID, "Metrics persistence is disabled.")
		return
	}
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.send(chatID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth("data")

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	b.send(chatID, sb.String())
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.send(b.cfg.AdminTelegramID, text)
}
