package observability

import (
	"sync"
	"time"
)

// Phase is what the agent is currently doing.
type Phase string

const (
	PhaseIdle             Phase = "IDLE"
	PhasePlanning         Phase = "PLANNING"
	PhaseAwaitingApproval Phase = "AWAITING_APPROVAL"
	PhaseExecuting        Phase = "EXECUTING"
)

type systemStatus struct {
	mu            sync.RWMutex
	currentPhase  Phase
	activeTask    string
	lastHeartbeat time.Time
}

var globalStatus = &systemStatus{
	currentPhase:  PhaseIdle,
	lastHeartbeat: time.Now(),
}

// SetPhase updates the global agent status.
func SetPhase(phase Phase, task string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.currentPhase = phase
	globalStatus.activeTask = task
}

// GetStatus retrieves a copy of the global agent status.
func GetStatus() (Phase, string, time.Time) {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.currentPhase, globalStatus.activeTask, globalStatus.lastHeartbeat
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.lastHeartbeat = time.Now()
}
