package conversation

import (
	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

// StageConfig is one row of the stage table. An empty Next marks a
// terminal stage.
type StageConfig struct {
	Next     core.Stage
	MaxTurns int
}

// Stages is the call script in natural order.
var Stages = map[core.Stage]StageConfig{
	core.StageGreeting:          {Next: core.StageIntroduction, MaxTurns: 1},
	core.StageIntroduction:      {Next: core.StageNeedsAssessment, MaxTurns: 2},
	core.StageNeedsAssessment:   {Next: core.StageSolutionPitch, MaxTurns: 3},
	core.StageSolutionPitch:     {Next: core.StageObjectionHandling, MaxTurns: 4},
	core.StageObjectionHandling: {Next: core.StageClosing, MaxTurns: 3},
	core.StageClosing:           {Next: core.StageEscalation, MaxTurns: 2},
	core.StageEscalation:        {MaxTurns: 1},
}

// ValidStage reports whether s is a state machine stage.
func ValidStage(s core.Stage) bool {
	_, ok := Stages[s]
	return ok
}

// StateManager drives each call through the stage table.
type StateManager struct {
	store *Store
}

func NewStateManager(store *Store) *StateManager {
	return &StateManager{store: store}
}

// CurrentStage returns the call's stage, starting it at greeting on first
// reference.
func (m *StateManager) CurrentStage(callID string) core.Stage {
	s := m.store.Session(callID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Stage returns the stage of a known call without creating a session.
func (m *StateManager) Stage(callID string) (core.Stage, bool) {
	s, ok := m.store.Lookup(callID)
	if !ok {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage, true
}

// TurnCount returns the number of turns spent in the current stage.
func (m *StateManager) TurnCount(callID string) int {
	s := m.store.Session(callID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnCount
}

// Advance counts a turn. A valid force stage is entered immediately with
// the turn count reset; otherwise the stage moves on once its turn budget
// is spent. Terminal stages never move on their own. It returns the stage
// after the transition.
func (m *StateManager) Advance(callID string, force core.Stage) core.Stage {
	s := m.store.Session(callID)
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.stage
	s.turnCount++

	cfg := Stages[s.stage]
	switch {
	case force != "" && ValidStage(force):
		s.stage = force
		s.turnCount = 0
	case s.turnCount >= cfg.MaxTurns && cfg.Next != "":
		s.stage = cfg.Next
		s.turnCount = 0
	}

	if s.stage != from {
		log.Debug().
			Str("component", "state").
			Str("call_id", callID).
			Str("from", string(from)).
			Str("to", string(s.stage)).
			Msg("stage changed")
	}
	return s.stage
}

// ShouldEscalate reports whether the call reached the escalation stage.
func (m *StateManager) ShouldEscalate(callID string) bool {
	return m.CurrentStage(callID) == core.StageEscalation
}
