package bot

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"prismBot/internal/conversation"
	"prismBot/internal/storage"
)

const emptyMentionReply = "You mentioned me, but didn't say anything. How can I help you?"

// TextHandler routes plain text messages: a mention of the bot or a
// reply to one of its messages triggers a completion, anything else is
// stored for the history command only.
type TextHandler struct {
	Store   *storage.Store
	Tracker *conversation.Tracker
	Builder *conversation.Builder
	Gateway Completer
	Info    Info
	Log     zerolog.Logger
}

func NewTextHandler(store *storage.Store, tracker *conversation.Tracker, builder *conversation.Builder, gateway Completer, info Info, log zerolog.Logger) *TextHandler {
	return &TextHandler{
		Store:   store,
		Tracker: tracker,
		Builder: builder,
		Gateway: gateway,
		Info:    info,
		Log:     log,
	}
}

func (h *TextHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.Text == "" {
		return
	}
	msg := update.Message
	if strings.HasPrefix(msg.Text, "/") {
		// commands are handled by their own handlers
		return
	}

	switch {
	case h.Info.Username != "" && mentionIndex(msg.Text, h.Info.Username) >= 0:
		h.handleMention(ctx, b, msg)
	case msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.ID == h.Info.ID:
		h.handleReply(ctx, b, msg)
	default:
		h.storeUserMessage(msg)
		h.Log.Debug().Int64("chat_id", msg.Chat.ID).Msg("message stored without reply")
	}
}

func (h *TextHandler) handleMention(ctx context.Context, b *bot.Bot, msg *models.Message) {
	chatID := msg.Chat.ID
	h.storeUserMessage(msg)

	query := stripMention(msg.Text, h.Info.Username)
	if query == "" {
		sendWithFallback(ctx, b, chatID, msg.ID, emptyMentionReply, h.Log)
		h.Log.Info().Int64("chat_id", chatID).Msg("mention without content")
		return
	}

	sendTyping(ctx, b, chatID, h.Log)

	// a mention starts fresh, with no reply chain behind it
	reply := h.Gateway.Complete(ctx, h.Builder.BuildForNewMessage(query, nil))
	sent := sendWithFallback(ctx, b, chatID, msg.ID, reply, h.Log)
	if sent == nil {
		return
	}

	h.Tracker.Start(query, msg.ID, reply, sent.ID)
	h.Store.AddMessage(chatID, h.Info.ID, h.Info.Username, reply)
	h.Log.Info().Int64("chat_id", chatID).Msg("replied to mention")
}

func (h *TextHandler) handleReply(ctx context.Context, b *bot.Bot, msg *models.Message) {
	chatID := msg.Chat.ID
	h.storeUserMessage(msg)

	replied := msg.ReplyToMessage
	chain := h.Tracker.Find(replied.ID)
	if chain == nil {
		// replying to a bot message from before this process started
		chain = h.Tracker.StartFromReply(replied.ID, replied.Text)
	}

	sendTyping(ctx, b, chatID, h.Log)

	reply := h.Gateway.Complete(ctx, h.Builder.BuildForNewMessage(msg.Text, h.Tracker.Snapshot(chain)))
	sent := sendWithFallback(ctx, b, chatID, msg.ID, reply, h.Log)
	if sent == nil {
		return
	}

	h.Tracker.Extend(chain, msg.Text, msg.ID, reply, sent.ID)
	h.Store.AddMessage(chatID, h.Info.ID, h.Info.Username, reply)
	h.Log.Info().Int64("chat_id", chatID).Msg("replied to conversation reply")
}

func (h *TextHandler) storeUserMessage(msg *models.Message) {
	userName := ""
	userID := int64(0)
	if msg.From != nil {
		userName = msg.From.FirstName
		userID = msg.From.ID
	}
	h.Store.AddMessage(msg.Chat.ID, userID, userName, msg.Text)
}

// mentionIndex returns the position of the first mention of @username in
// text, or -1. A match must end at a word boundary so a mention of a
// longer username (e.g. @prismbotx when the bot is @prismbot) does not
// count.
func mentionIndex(text, username string) int {
	mention := "@" + username
	for from := 0; ; {
		i := strings.Index(text[from:], mention)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(mention)
		if end == len(text) || !isUsernameChar(rune(text[end])) {
			return i
		}
		from = end
	}
}

func isUsernameChar(r rune) bool {
	return r == '_' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z')
}

// stripMention removes the first whole-word occurrence of the bot's
// @username.
func stripMention(text, username string) string {
	i := mentionIndex(text, username)
	if i < 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:i] + text[i+len(username)+1:])
}
