package session

import (
	"sync"
	"time"

	"aide/pkg/logger"
	"go.uber.org/zap"
)

// Role identifies who produced a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one immutable conversation entry. VoiceText carries what was
// spoken when it differs from the displayed content; DetailedText carries
// the expanded form when content was summarized for voice.
type Turn struct {
	Role         Role      `json:"role"`
	Content      string    `json:"content"`
	VoiceText    string    `json:"voice_text,omitempty"`
	DetailedText string    `json:"detailed_text,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Session owns an ordered, bounded sequence of turns. Appends are atomic
// and ordering is append-only; eviction drops oldest turns first but never
// a turn at or past the pin mark (the unresolved tail of an in-flight
// tool-dispatch round).
type Session struct {
	ID string

	// runMu serializes orchestrator runs; a second input while one is in
	// flight is rejected, not queued
	runMu sync.Mutex

	mu       sync.Mutex
	turns    []Turn
	maxTurns int
	pinFrom  int // -1 when nothing is pinned
	logger   *zap.Logger
}

// New creates a session with the given id and turn bound
func New(id string, maxTurns int) *Session {
	return &Session{
		ID:       id,
		maxTurns: maxTurns,
		pinFrom:  -1,
		logger:   logger.Get(),
	}
}

// Append adds a turn, stamping it if the caller left Timestamp zero, and
// enforces the length bound
func (s *Session) Append(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	s.turns = append(s.turns, turn)
	s.truncateIfNeeded()
}

// PinTail marks the most recent turn as unresolved so truncation cannot
// evict it until Unpin is called
func (s *Session) PinTail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.turns) > 0 {
		s.pinFrom = len(s.turns) - 1
	}
}

// Unpin releases the unresolved-tail mark
func (s *Session) Unpin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinFrom = -1
}

// truncateIfNeeded drops oldest turns past the bound. Caller must hold s.mu.
func (s *Session) truncateIfNeeded() {
	excess := len(s.turns) - s.maxTurns
	if excess <= 0 {
		return
	}
	if s.pinFrom >= 0 && excess > s.pinFrom {
		// Only the stable prefix before the pin is evictable
		excess = s.pinFrom
	}
	if excess <= 0 {
		return
	}
	s.turns = append([]Turn(nil), s.turns[excess:]...)
	if s.pinFrom >= 0 {
		s.pinFrom -= excess
	}
	s.logger.Debug("Session truncated",
		zap.String("session_id", s.ID),
		zap.Int("evicted", excess),
		zap.Int("remaining", len(s.turns)),
	)
}

// History returns the most recent maxTurns turns in chronological order.
// The result is a snapshot: callers never see the live slice, and two calls
// without an intervening Append yield identical sequences.
func (s *Session) History(maxTurns int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.turns)
	if maxTurns > 0 && maxTurns < n {
		n = maxTurns
	}
	out := make([]Turn, n)
	copy(out, s.turns[len(s.turns)-n:])
	return out
}

// TryBegin claims the session for one orchestrator run. It returns false
// when another run is already in flight.
func (s *Session) TryBegin() bool {
	return s.runMu.TryLock()
}

// End releases the session after a run claimed with TryBegin
func (s *Session) End() {
	s.runMu.Unlock()
}

// Len returns the current number of turns
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}
