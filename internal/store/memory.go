package store

import (
	"sync"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged utterance in a session transcript.
type Turn struct {
	Role    Role
	Content string
}

// TranscriptStore owns every session transcript. Callers that need an atomic
// read-append-write sequence on one session hold Lock for its duration; the
// other methods are individually safe for concurrent use.
type TranscriptStore interface {
	Get(sessionID string) ([]Turn, bool)
	Reset(sessionID string, turns []Turn)
	Append(sessionID string, turns ...Turn)
	Delete(sessionID string)
	Lock(sessionID string) (unlock func())
	Len() int
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	maxTurns int
	locks    *keyedMutex
}

var _ TranscriptStore = (*MemoryStore)(nil)

// MinWindowTurns is the smallest window that still holds the system turn and
// one full exchange.
const MinWindowTurns = 3

// NewMemoryStore keeps at most maxTurns turns per session, including the
// system turn. maxTurns <= 0 disables trimming; smaller positive values are
// raised to MinWindowTurns.
func NewMemoryStore(maxTurns int) *MemoryStore {
	if maxTurns > 0 && maxTurns < MinWindowTurns {
		maxTurns = MinWindowTurns
	}
	return &MemoryStore{
		sessions: make(map[string][]Turn),
		maxTurns: maxTurns,
		locks:    newKeyedMutex(),
	}
}

func (m *MemoryStore) Get(sessionID string) ([]Turn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, true
}

func (m *MemoryStore) Reset(sessionID string, turns []Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append([]Turn(nil), turns...)
	m.trimLocked(sessionID)
}

func (m *MemoryStore) Append(sessionID string, turns ...Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], turns...)
	m.trimLocked(sessionID)
}

func (m *MemoryStore) Delete(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

func (m *MemoryStore) Lock(sessionID string) func() {
	return m.locks.lock(sessionID)
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// trimLocked drops the oldest conversational turns once the window is full.
// A leading system turn always survives, and the kept history never starts
// with an assistant turn.
func (m *MemoryStore) trimLocked(sessionID string) {
	if m.maxTurns <= 0 {
		return
	}
	turns := m.sessions[sessionID]
	if len(turns) <= m.maxTurns {
		return
	}
	var head []Turn
	body := turns
	if turns[0].Role == RoleSystem {
		head = turns[:1]
		body = turns[1:]
	}
	keep := m.maxTurns - len(head)
	if keep < 0 {
		keep = 0
	}
	body = body[len(body)-keep:]
	for len(body) > 0 && body[0].Role == RoleAssistant {
		body = body[1:]
	}
	trimmed := make([]Turn, 0, len(head)+len(body))
	trimmed = append(trimmed, head...)
	trimmed = append(trimmed, body...)
	m.sessions[sessionID] = trimmed
}
