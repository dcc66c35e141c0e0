package session

import (
	"sync"

	"github.com/google/uuid"

	apperrors "aide/pkg/errors"
)

// SystemPrompt seeds every new session. It frames the assistant's role and
// how it should use the registered tools.
const SystemPrompt = `You are an AI assistant and multi-agent coordinator for IT practitioners.
You support developers, planners, designers, marketers and project managers.
Analyze each request, decide whether a registered tool serves it better than
a direct answer, and produce clear, actionable results. When a response
should be spoken, call the speak_text tool with a concise voice summary and
a detailed long form. Report tool failures transparently and suggest how the
user can proceed.`

// Greeting is the assistant's opening turn in a fresh session
const Greeting = "Hello! I'm your planning assistant. How can I help you today?"

// Manager owns all live sessions, keyed by id. Sessions are in-memory only;
// a process restart loses them unless the transcript archive is wired in.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxTurns int
}

// NewManager creates a session manager with the given per-session turn bound
func NewManager(maxTurns int) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
	}
}

// Create starts a new session seeded with the system prompt and greeting
func (m *Manager) Create() *Session {
	sess := New(uuid.NewString(), m.maxTurns)
	sess.Append(Turn{Role: RoleSystem, Content: SystemPrompt})
	sess.Append(Turn{Role: RoleAssistant, Content: Greeting})

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	return sess
}

// Get resolves a session by id
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewSessionNotFound(id)
	}
	return sess, nil
}

// Remove drops a session; in-flight runs keep their reference
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
