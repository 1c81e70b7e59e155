package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	internalbot "prismBot/internal/bot"
	"prismBot/internal/config"
	"prismBot/internal/conversation"
	"prismBot/internal/llm"
	"prismBot/internal/logger"
	"prismBot/internal/metrics"
	"prismBot/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.LogLevel)

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr, logger.Component(log, "metrics"))
	}

	store, err := storage.NewStore(cfg.DataDir, cfg.MaxHistory, logger.Component(log, "storage"), m)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize chat storage")
	}

	tracker := conversation.NewTracker(logger.Component(log, "conversation"), m)
	builder := conversation.NewBuilder(cfg.PersonaPrompt, cfg.HistoryContextTemplate)
	gateway := llm.NewClient(cfg.APIKey, cfg.APIBase, cfg.DefaultModel, logger.Component(log, "llm"), m)
	logModelAvailability(log, cfg.DefaultModel, gateway.AvailableModels())

	b, err := bot.New(cfg.BotToken, bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, u *models.Update) {}))
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create telegram bot")
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot resolve bot identity")
	}
	info := internalbot.Info{ID: me.ID, Username: me.Username}

	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: internalbot.BotCommands()}); err != nil {
		log.Warn().Err(err).Msg("failed to set bot commands")
	}

	handlerLog := logger.Component(log, "bot")
	start := internalbot.NewStartHandler(handlerLog)
	help := internalbot.NewHelpHandler(handlerLog)
	history := internalbot.NewHistoryHandler(store, tracker, gateway, info, handlerLog,
		cfg.HistorySystemPrompt, cfg.HistoryQueryTemplate, cfg.HistoryTurnTemplate)
	text := internalbot.NewTextHandler(store, tracker, builder, gateway, info, handlerLog)

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, start.Handle)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, help.Handle)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypePrefix, history.Handle)
	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, text.Handle)

	log.Info().Str("username", info.Username).Msg("bot started")
	b.Start(ctx)
	log.Info().Msg("bot stopped")
}

func logModelAvailability(log zerolog.Logger, defaultModel string, available []string) {
	if len(available) == 0 {
		log.Warn().Msg("could not retrieve available models; completions may not work")
		return
	}
	for _, id := range available {
		if id == defaultModel {
			log.Info().Str("model", defaultModel).Msg("default model is available")
			return
		}
	}
	log.Warn().Str("model", defaultModel).Strs("available", available).Msg("default model not reported by the service")
}
