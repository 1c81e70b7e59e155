package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

type StartHandler struct {
	Log zerolog.Logger
}

func NewStartHandler(log zerolog.Logger) *StartHandler {
	return &StartHandler{Log: log}
}

func (h *StartHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	name := ""
	if update.Message.From != nil {
		name = update.Message.From.FirstName
	}

	text := fmt.Sprintf(
		"Hello %s! I am PrismAI bot.\n"+
			"I can keep track of your chat history and respond using AI.\n"+
			"Try /history [question] to ask questions about your past conversations.\n\n"+
			"You can also tag me in a message to chat with me!",
		name,
	)
	sendWithFallback(ctx, b, chatID, update.Message.ID, text, h.Log)
	h.Log.Info().Int64("chat_id", chatID).Msg("user started the bot")
}

type HelpHandler struct {
	Log zerolog.Logger
}

func NewHelpHandler(log zerolog.Logger) *HelpHandler {
	return &HelpHandler{Log: log}
}

func (h *HelpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	text := fmt.Sprintf(
		"PrismAI Bot Help:\n\n%s\n\n"+
			"Examples for /history command:\n"+
			"/history Summarize our conversation so far\n"+
			"/history Group our discussion by topics\n"+
			"/history What were the main points I mentioned?\n\n"+
			"You can tag me in a message (e.g., @botname hello) and I'll respond using the AI model.\n\n"+
			"Your conversations are stored in chat history for context.",
		CommandsHelpText(),
	)
	sendWithFallback(ctx, b, chatID, update.Message.ID, text, h.Log)
	h.Log.Info().Int64("chat_id", chatID).Msg("user requested help")
}
