package bot

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

// sendWithFallback replies with Markdown first and resends as plain text
// when Telegram rejects the formatting. Returns nil when both attempts
// fail.
func sendWithFallback(ctx context.Context, b *bot.Bot, chatID int64, replyTo int, text string, log zerolog.Logger) *models.Message {
	// legacy Markdown: MarkdownV2 rejects unescaped punctuation, which
	// would 400 on nearly every model reply
	msg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ParseMode:       models.ParseModeMarkdownV1,
		ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
	})
	if err == nil {
		return msg
	}
	log.Warn().Err(err).Int64("chat_id", chatID).Msg("markdown send rejected, retrying as plain text")

	msg, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            text,
		ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
	})
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
		return nil
	}
	return msg
}

func sendTyping(ctx context.Context, b *bot.Bot, chatID int64, log zerolog.Logger) {
	_, err := b.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})
	if err != nil {
		log.Debug().Err(err).Int64("chat_id", chatID).Msg("failed to send typing action")
	}
}
