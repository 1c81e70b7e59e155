// Package storage keeps the durable, bounded, per-chat message log.
// Each chat owns one JSON record on disk; an in-memory cache fronts the
// files and every mutation is written through immediately.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"prismBot/internal/metrics"
)

const (
	maxMessageLength = 1000
	truncationMarker = "... [truncated]"
	timestampLayout  = "2006-01-02 15:04:05"
)

// Message is one stored chat message. Identity is positional within the
// chat's log; there is no message ID.
type Message struct {
	Timestamp string `json:"timestamp"`
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	Text      string `json:"text"`
}

// Store owns the per-chat logs. Handlers run concurrently, so all access
// goes through one mutex to keep the FIFO bound intact.
type Store struct {
	dir        string
	maxPerChat int

	mu    sync.Mutex
	cache map[int64][]Message

	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewStore(dir string, maxPerChat int, log zerolog.Logger, m *metrics.Metrics) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	log.Info().Str("dir", dir).Int("max_per_chat", maxPerChat).Msg("chat storage initialized")

	return &Store{
		dir:        dir,
		maxPerChat: maxPerChat,
		cache:      make(map[int64][]Message),
		log:        log,
		metrics:    m,
	}, nil
}

// AddMessage appends a message to the chat's log, evicting the oldest
// entry beyond the cap, and flushes the record to disk. Over-long text
// is truncated with a visible marker before storing.
func (s *Store) AddMessage(chatID, userID int64, userName, text string) {
	if runes := []rune(text); len(runes) > maxMessageLength {
		s.log.Warn().
			Int64("chat_id", chatID).
			Str("user_name", userName).
			Int("length", len(runes)).
			Msg("message truncated for storage")
		text = string(runes[:maxMessageLength]) + truncationMarker
	}

	msg := Message{
		Timestamp: time.Now().Format(timestampLayout),
		UserID:    userID,
		UserName:  userName,
		Text:      text,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.loadLocked(chatID), msg)
	if len(history) > s.maxPerChat {
		history = history[len(history)-s.maxPerChat:]
	}
	s.cache[chatID] = history
	s.saveLocked(chatID)

	if s.metrics != nil {
		s.metrics.MessagesStored.Inc()
	}
	s.log.Debug().Int64("chat_id", chatID).Str("user_name", userName).Msg("message stored")
}

// History returns the chat's full log in arrival order. A chat with no
// messages yields an empty slice, never an error.
func (s *Store) History(chatID int64) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.loadLocked(chatID)
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// Recent returns the last count messages, or fewer if the log is shorter.
func (s *Store) Recent(chatID int64, count int) []Message {
	history := s.History(chatID)
	if count >= len(history) {
		return history
	}
	return history[len(history)-count:]
}

// Clear drops both the cached and the durable record for a chat. It is
// idempotent.
func (s *Store) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, chatID)

	path := s.filePath(chatID)
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			s.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to remove history file")
		}
		return
	}
	s.log.Info().Int64("chat_id", chatID).Msg("history cleared")
}

// ChatIDs enumerates chats with a durable record. Files whose names are
// not integer chat IDs are skipped.
func (s *Store) ChatIDs() []int64 {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Error().Err(err).Str("dir", s.dir).Msg("failed to list data dir")
		return nil
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) filePath(chatID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.json", chatID))
}

// loadLocked returns the chat's history, reading the durable record on a
// cache miss. A corrupt or unreadable record counts as empty history.
func (s *Store) loadLocked(chatID int64) []Message {
	if history, ok := s.cache[chatID]; ok {
		return history
	}

	var history []Message
	raw, err := os.ReadFile(s.filePath(chatID))
	switch {
	case err == nil:
		if jerr := json.Unmarshal(raw, &history); jerr != nil {
			s.log.Error().Err(jerr).Int64("chat_id", chatID).Msg("corrupt history record, treating as empty")
			history = nil
		}
	case os.IsNotExist(err):
		// first message for this chat
	default:
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to read history record, treating as empty")
	}

	if len(history) > s.maxPerChat {
		history = history[len(history)-s.maxPerChat:]
	}
	s.cache[chatID] = history
	return history
}

// saveLocked flushes the chat's cached history to its record. Write
// failures are logged only; history keeps serving from the cache.
func (s *Store) saveLocked(chatID int64) {
	data, err := json.MarshalIndent(s.cache[chatID], "", "  ")
	if err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to encode history record")
		return
	}
	if err := os.WriteFile(s.filePath(chatID), data, 0o644); err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to write history record")
	}
}
