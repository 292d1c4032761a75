// Package session tracks the per-user finite state that governs how the next
// free-text message is interpreted. State lives only in memory and is rebuilt
// as Idle after a restart or a day rollover.
package session

import "sync"

type State int

const (
	Idle State = iota
	AwaitingRevelationText
	AwaitingReminderTimeInput
)

func (s State) String() string {
	switch s {
	case AwaitingRevelationText:
		return "awaiting_revelation_text"
	case AwaitingReminderTimeInput:
		return "awaiting_reminder_time_input"
	default:
		return "idle"
	}
}

type Manager struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]State),
	}
}

// Get returns the user's current state. Unknown users are Idle.
func (m *Manager) Get(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID]
}

func (m *Manager) Set(userID int64, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == Idle {
		delete(m.states, userID)
		return
	}
	m.states[userID] = s
}

// Reset forces the user back to Idle, discarding any pending input-await.
func (m *Manager) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}

// ResetAll clears every user's state. Runs at day rollover so nobody stays
// stuck awaiting input across a day boundary.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.states)
}
