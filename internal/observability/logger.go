package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeTask       EventType = "task"
	EventTypePlan       EventType = "plan"
	EventTypeStep       EventType = "step"
	EventTypeApproval   EventType = "approval"
	EventTypePolicy     EventType = "policy"
	EventTypeToolCall   EventType = "tool_call"
	EventTypeToolResult EventType = "tool_result"
	EventTypeUsage      EventType = "usage"
	EventTypeHeartbeat  EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	TaskID    string    `json:"task_id,omitempty"`
	StepID    string    `json:"step_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging. Every event goes to stdout as one
// JSON line; task-relevant events are also appended to a rotated file.
type Logger struct {
	eventLogPath string
	maxSize      int64
}

func NewLogger() *Logger {
	return &Logger{
		eventLogPath: filepath.Join("logs", "events.jsonl"),
		maxSize:      10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	switch evt.Type {
	case EventTypeTask, EventTypeStep, EventTypeApproval, EventTypeUsage:
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.eventLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	info, err := os.Stat(l.eventLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.eventLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.eventLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.eventLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogTask(taskID, goal, outcome string) {
	l.Log(Event{
		Type:   EventTypeTask,
		TaskID: taskID,
		Data:   map[string]string{"goal": goal, "outcome": outcome},
	})
}

func (l *Logger) LogPlan(taskID string, round, stepCount int, conversational bool) {
	l.Log(Event{
		Type:   EventTypePlan,
		TaskID: taskID,
		Data: map[string]any{
			"round":          round,
			"steps":          stepCount,
			"conversational": conversational,
		},
	})
}

func (l *Logger) LogStep(taskID, stepID, tool, status, errText string) {
	data := map[string]string{"tool": tool, "status": status}
	if errText != "" {
		data["error"] = errText
	}
	l.Log(Event{
		Type:   EventTypeStep,
		TaskID: taskID,
		StepID: stepID,
		Data:   data,
	})
}

func (l *Logger) LogApproval(taskID, stepID, tier string, approved bool) {
	l.Log(Event{
		Type:   EventTypeApproval,
		TaskID: taskID,
		StepID: stepID,
		Data: map[string]any{
			"tier":     tier,
			"approved": approved,
		},
	})
}

func (l *Logger) LogToolCall(taskID, stepID, tool string, params any) {
	l.Log(Event{
		Type:   EventTypeToolCall,
		TaskID: taskID,
		StepID: stepID,
		Data: map[string]any{
			"tool":   tool,
			"params": params,
		},
	})
}

func (l *Logger) LogUsage(taskID string, promptTokens, completionTokens int) {
	l.Log(Event{
		Type:   EventTypeUsage,
		TaskID: taskID,
		Data: map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}
