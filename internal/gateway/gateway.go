package gateway

import (
	"context"

	"foreman/internal/agent"
)

// Messenger defines the interface for communication gateways.
type Messenger interface {
	// Start begins the message listening loop
	Start(ctx context.Context) error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}

// Runner executes one goal-driven task with observer hooks. It is
// satisfied by *agent.Orchestrator.
type Runner interface {
	ExecuteTask(ctx context.Context, req agent.Request) (*agent.TaskResult, error)
}
