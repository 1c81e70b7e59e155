package bot

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"prismBot/internal/llm"
)

type Handler interface {
	Handle(ctx context.Context, b *bot.Bot, update *models.Update)
}

// Completer is the completion gateway as seen by the handlers. It never
// fails; every outcome is text to show in the chat.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) string
}

// Info identifies the bot account, resolved once at startup.
type Info struct {
	ID       int64
	Username string
}
