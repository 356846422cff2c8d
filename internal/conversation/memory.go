package conversation

import "github.com/kaphack/voicecall-assistant/internal/core"

// DefaultWindow is the number of exchanges remembered per call.
const DefaultWindow = 5

// Memory is a bounded rolling window of exchanges per call.
type Memory struct {
	store  *Store
	window int
}

func NewMemory(store *Store, window int) *Memory {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{store: store, window: window}
}

// Append adds an exchange, dropping the oldest once the window is full.
func (m *Memory) Append(callID string, ex core.Exchange) {
	s := m.store.Session(callID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, ex)
	if over := len(s.history) - m.window; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}

// Context returns a copy of the remembered exchanges, oldest first.
func (m *Memory) Context(callID string) []core.Exchange {
	s := m.store.Session(callID)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Exchange, len(s.history))
	copy(out, s.history)
	return out
}

// UserTexts returns the remembered user utterances, oldest first.
func (m *Memory) UserTexts(callID string) []string {
	ctx := m.Context(callID)
	out := make([]string, len(ctx))
	for i, ex := range ctx {
		out[i] = ex.UserText
	}
	return out
}
