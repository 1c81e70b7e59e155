package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultAPIBase    = "https://your-litellm-server.example.com/v1"
	defaultDataDir    = "data"
	defaultMaxHistory = 500
	defaultLogLevel   = "info"

	defaultPersonaPrompt          = "당신은 텔레그램 채팅에 특화된 AI 어시스턴트입니다."
	defaultHistorySystemPrompt    = "당신은 텔레그램 채팅 대화 분석을 돕는 AI 어시스턴트입니다. 제공된 대화 기록을 바탕으로 사용자의 질문에 답변해주세요."
	defaultHistoryQueryTemplate   = "다음은 대화 기록입니다:\n\n%s\n\n이 대화 기록에 대한 질문: %s"
	defaultHistoryTurnTemplate    = "대화 기록에 대한 질문: %s"
	defaultHistoryContextTemplate = "다음은 이전 대화의 기록입니다. 이 맥락을 기반으로 사용자 질문에 답하세요: %s"
)

type Config struct {
	BotToken     string
	APIKey       string
	APIBase      string
	DefaultModel string
	DataDir      string
	MaxHistory   int
	LogLevel     string
	MetricsAddr  string

	// Prompts are domain content, not logic; overridable without a rebuild.
	PersonaPrompt          string
	HistorySystemPrompt    string
	HistoryQueryTemplate   string
	HistoryTurnTemplate    string
	HistoryContextTemplate string
}

func Load() (c Config, err error) {
	// A missing .env file is fine; variables may come straight from the environment.
	_ = godotenv.Load()

	c = Config{
		BotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		APIBase:      envOrDefault("OPENAI_API_BASE", defaultAPIBase),
		DefaultModel: os.Getenv("LLM_MODEL"),
		DataDir:      envOrDefault("DATA_DIR", defaultDataDir),
		MaxHistory:   envIntOrDefault("MAX_HISTORY_LENGTH", defaultMaxHistory),
		LogLevel:     envOrDefault("LOG_LEVEL", defaultLogLevel),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),

		PersonaPrompt:          envOrDefault("PERSONA_PROMPT", defaultPersonaPrompt),
		HistorySystemPrompt:    envOrDefault("HISTORY_SYSTEM_PROMPT", defaultHistorySystemPrompt),
		HistoryQueryTemplate:   envOrDefault("HISTORY_QUERY_TEMPLATE", defaultHistoryQueryTemplate),
		HistoryTurnTemplate:    envOrDefault("HISTORY_TURN_TEMPLATE", defaultHistoryTurnTemplate),
		HistoryContextTemplate: envOrDefault("HISTORY_CONTEXT_TEMPLATE", defaultHistoryContextTemplate),
	}

	if c.BotToken == "" {
		return c, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.APIKey == "" {
		return c, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.DefaultModel == "" {
		return c, fmt.Errorf("LLM_MODEL is required")
	}
	if c.MaxHistory <= 0 {
		return c, fmt.Errorf("MAX_HISTORY_LENGTH must be positive")
	}

	return c, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
