package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"prismBot/internal/conversation"
	"prismBot/internal/llm"
	"prismBot/internal/storage"
)

const (
	historyUsageReply = "Please provide a question after /history command. For example:\n/history Summarize our conversation"
	historyEmptyReply = "No chat history found. Start chatting to build history!"
)

// HistoryHandler answers /history questions by handing the full stored
// chat log to the model.
type HistoryHandler struct {
	Store   *storage.Store
	Tracker *conversation.Tracker
	Gateway Completer
	Info    Info
	Log     zerolog.Logger

	SystemPrompt  string
	QueryTemplate string // %s history, %s question
	TurnTemplate  string // %s question
}

func NewHistoryHandler(store *storage.Store, tracker *conversation.Tracker, gateway Completer, info Info, log zerolog.Logger, systemPrompt, queryTemplate, turnTemplate string) *HistoryHandler {
	return &HistoryHandler{
		Store:         store,
		Tracker:       tracker,
		Gateway:       gateway,
		Info:          info,
		Log:           log,
		SystemPrompt:  systemPrompt,
		QueryTemplate: queryTemplate,
		TurnTemplate:  turnTemplate,
	}
}

func (h *HistoryHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Text == "" {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID

	userQuery, ok := parseHistoryQuery(msg.Text)
	if !ok {
		sendWithFallback(ctx, b, chatID, msg.ID, historyUsageReply, h.Log)
		return
	}

	history := h.Store.History(chatID)
	if len(history) == 0 {
		sendWithFallback(ctx, b, chatID, msg.ID, historyEmptyReply, h.Log)
		return
	}

	historyText := formatHistory(history, h.Info.ID)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: h.SystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(h.QueryTemplate, historyText, userQuery)},
	}

	sendTyping(ctx, b, chatID, h.Log)
	h.Log.Info().Int64("chat_id", chatID).Str("query", userQuery).Msg("answering history question")

	answer := h.Gateway.Complete(ctx, messages)
	sent := sendWithFallback(ctx, b, chatID, msg.ID, answer, h.Log)
	if sent == nil {
		return
	}

	// seed a chain carrying the formatted log so follow-up replies keep
	// the history context
	h.Tracker.StartWithHistory(historyText, fmt.Sprintf(h.TurnTemplate, userQuery), msg.ID, answer, sent.ID)

	userName := ""
	userID := int64(0)
	if msg.From != nil {
		userName = msg.From.FirstName
		userID = msg.From.ID
	}
	h.Store.AddMessage(chatID, userID, userName, userQuery)
	h.Store.AddMessage(chatID, h.Info.ID, h.Info.Username, answer)
}

// parseHistoryQuery extracts the question after the /history command.
func parseHistoryQuery(text string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) < 2 {
		return "", false
	}
	query := strings.TrimSpace(parts[1])
	return query, query != ""
}

// formatHistory renders the stored log one "Speaker: text" line per
// message; the bot's own messages are attributed to "Bot".
func formatHistory(history []storage.Message, botID int64) string {
	var sb strings.Builder
	for _, m := range history {
		speaker := m.UserName
		if m.UserID == botID {
			speaker = "Bot"
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(m.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
