package conversation

import (
	"sync"

	"github.com/rs/zerolog"

	"prismBot/internal/metrics"
)

// Tracker maps the message ID of a chain's latest bot turn to the chain.
// Chains live for the lifetime of the process and are never evicted;
// they are best-effort context, lost on restart.
type Tracker struct {
	mu     sync.Mutex
	chains map[int]*Chain

	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewTracker(log zerolog.Logger, m *metrics.Metrics) *Tracker {
	return &Tracker{
		chains:  make(map[int]*Chain),
		log:     log,
		metrics: m,
	}
}

// Start creates a two-turn chain [user, bot] keyed by the bot message ID.
func (t *Tracker) Start(userText string, userMsgID int, botText string, botMsgID int) {
	chain := &Chain{Turns: []Turn{
		{IsBot: false, Text: userText, MessageID: userMsgID},
		{IsBot: true, Text: botText, MessageID: botMsgID},
	}}

	t.mu.Lock()
	t.chains[botMsgID] = chain
	t.updateGaugeLocked()
	t.mu.Unlock()

	t.log.Debug().Int("bot_msg_id", botMsgID).Msg("started conversation chain")
}

// StartWithHistory creates a chain whose user turn carries the formatted
// chat log used to answer a history query; queryTurnText is the
// user-facing text recorded for that turn.
func (t *Tracker) StartWithHistory(historyText, queryTurnText string, userMsgID int, botText string, botMsgID int) {
	chain := &Chain{Turns: []Turn{
		{
			IsBot:             false,
			Text:              queryTurnText,
			MessageID:         userMsgID,
			HasHistoryContext: true,
			HistoryContext:    historyText,
		},
		{IsBot: true, Text: botText, MessageID: botMsgID},
	}}

	t.mu.Lock()
	t.chains[botMsgID] = chain
	t.updateGaugeLocked()
	t.mu.Unlock()

	t.log.Debug().Int("bot_msg_id", botMsgID).Msg("started history conversation chain")
}

// StartFromReply seeds a one-turn chain from a bot message being replied
// to when no tracked chain covers it. The chain is not registered until
// Extend keys it by the next bot reply.
func (t *Tracker) StartFromReply(repliedMsgID int, repliedText string) *Chain {
	t.log.Debug().Int("replied_msg_id", repliedMsgID).Msg("seeding chain from untracked reply")
	return &Chain{Turns: []Turn{
		{IsBot: true, Text: repliedText, MessageID: repliedMsgID},
	}}
}

// Find looks a chain up by message ID: direct key first, then a linear
// scan over every tracked turn so a reply to any past turn recovers its
// chain.
func (t *Tracker) Find(messageID int) *Chain {
	t.mu.Lock()
	defer t.mu.Unlock()

	if chain, ok := t.chains[messageID]; ok {
		return chain
	}

	for _, chain := range t.chains {
		for _, turn := range chain.Turns {
			if turn.MessageID == messageID {
				t.log.Debug().Int("msg_id", messageID).Msg("found chain via turn scan")
				return chain
			}
		}
	}
	return nil
}

// Snapshot returns an isolated copy of the chain's turns for reading
// outside the tracker's lock. Chains are shared and extended in place,
// so readers that may run concurrently with Extend must not walk
// chain.Turns directly.
func (t *Tracker) Snapshot(chain *Chain) *Chain {
	if chain == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	turns := make([]Turn, len(chain.Turns))
	copy(turns, chain.Turns)
	return &Chain{Turns: turns}
}

// Extend appends a user turn and a bot turn to the chain in place and
// re-keys it under the new bot message ID. Old keys stay valid.
func (t *Tracker) Extend(chain *Chain, userText string, userMsgID int, botText string, botMsgID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	chain.Turns = append(chain.Turns,
		Turn{IsBot: false, Text: userText, MessageID: userMsgID},
		Turn{IsBot: true, Text: botText, MessageID: botMsgID},
	)
	t.chains[botMsgID] = chain
	t.updateGaugeLocked()

	t.log.Debug().Int("bot_msg_id", botMsgID).Int("turns", len(chain.Turns)).Msg("extended conversation chain")
}

func (t *Tracker) updateGaugeLocked() {
	if t.metrics != nil {
		t.metrics.ChainsTracked.Set(float64(len(t.chains)))
	}
}
