package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T, dir string, maxPerChat int) *Store {
	t.Helper()
	s, err := NewStore(dir, maxPerChat, zerolog.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestHistory_EmptyChat(t *testing.T) {
	s := newTestStore(t, t.TempDir(), 10)

	history := s.History(42)
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(history))
	}
}

func TestAddMessage_EvictsOldestBeyondCap(t *testing.T) {
	s := newTestStore(t, t.TempDir(), 3)

	for i := 0; i < 5; i++ {
		s.AddMessage(1, 100, "alice", fmt.Sprintf("msg-%d", i))
	}

	history := s.History(1)
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	for i, want := range []string{"msg-2", "msg-3", "msg-4"} {
		if history[i].Text != want {
			t.Errorf("position %d: expected %q, got %q", i, want, history[i].Text)
		}
	}
}

func TestAddMessage_TruncatesLongText(t *testing.T) {
	s := newTestStore(t, t.TempDir(), 10)

	long := strings.Repeat("가", maxMessageLength+50)
	s.AddMessage(1, 100, "alice", long)

	history := s.History(1)
	if len(history) != 1 {
		t.Fatalf("expected 1 message, got %d", len(history))
	}
	got := history[0].Text
	if !strings.HasSuffix(got, truncationMarker) {
		t.Errorf("expected truncation marker suffix, got %q", got[len(got)-30:])
	}
	if n := len([]rune(strings.TrimSuffix(got, truncationMarker))); n != maxMessageLength {
		t.Errorf("expected %d rune body, got %d", maxMessageLength, n)
	}
}

func TestAddMessage_KeepsTextAtLimit(t *testing.T) {
	s := newTestStore(t, t.TempDir(), 10)

	exact := strings.Repeat("a", maxMessageLength)
	s.AddMessage(1, 100, "alice", exact)

	if got := s.History(1)[0].Text; got != exact {
		t.Errorf("text at the limit must be stored verbatim")
	}
}

func TestHistory_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	s := newTestStore(t, dir, 10)
	s.AddMessage(7, 100, "alice", "hello")
	s.AddMessage(7, 200, "bot", "hi there")

	// a fresh store over the same directory simulates a restart
	reopened := newTestStore(t, dir, 10)
	history := reopened.History(7)
	if len(history) != 2 {
		t.Fatalf("expected 2 messages after restart, got %d", len(history))
	}
	if history[0].Text != "hello" || history[1].Text != "hi there" {
		t.Errorf("unexpected order after restart: %+v", history)
	}
	if history[0].UserID != 100 || history[0].UserName != "alice" {
		t.Errorf("sender fields lost in round trip: %+v", history[0])
	}
}

func TestCorruptRecordTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "9.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestStore(t, dir, 10)
	if history := s.History(9); len(history) != 0 {
		t.Fatalf("expected empty history for corrupt record, got %d", len(history))
	}

	// the chat stays usable
	s.AddMessage(9, 100, "alice", "fresh start")
	if history := s.History(9); len(history) != 1 {
		t.Fatalf("expected 1 message, got %d", len(history))
	}
}

func TestRecent(t *testing.T) {
	s := newTestStore(t, t.TempDir(), 10)
	for i := 0; i < 5; i++ {
		s.AddMessage(1, 100, "alice", fmt.Sprintf("msg-%d", i))
	}

	recent := s.Recent(1, 2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(recent))
	}
	if recent[0].Text != "msg-3" || recent[1].Text != "msg-4" {
		t.Errorf("unexpected recent messages: %+v", recent)
	}

	if got := s.Recent(1, 50); len(got) != 5 {
		t.Errorf("expected full history when count exceeds length, got %d", len(got))
	}
}

func TestClear_Idempotent(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir, 10)
	s.AddMessage(3, 100, "alice", "to be cleared")

	s.Clear(3)
	if len(s.History(3)) != 0 {
		t.Fatal("expected empty history after clear")
	}
	if _, err := os.Stat(filepath.Join(dir, "3.json")); !os.IsNotExist(err) {
		t.Fatal("expected durable record removed")
	}

	// clearing again is a no-op
	s.Clear(3)
}

func TestChatIDs_SkipsMalformedNames(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir, 10)
	s.AddMessage(11, 100, "alice", "a")
	s.AddMessage(-22, 100, "bob", "b")

	for _, junk := range []string{"notachat.json", "33.txt", "README"} {
		if err := os.WriteFile(filepath.Join(dir, junk), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ids := s.ChatIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 chat ids, got %v", ids)
	}
	seen := map[int64]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[11] || !seen[-22] {
		t.Errorf("missing expected chat ids: %v", ids)
	}
}

func TestStoredTimestampFormat(t *testing.T) {
	s := newTestStore(t, t.TempDir(), 10)
	s.AddMessage(1, 100, "alice", "hi")

	ts := s.History(1)[0].Timestamp
	if len(ts) != len(timestampLayout) {
		t.Errorf("unexpected timestamp format: %q", ts)
	}
}
