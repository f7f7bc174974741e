package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"foreman/internal/agent"
	"foreman/internal/observability"
	"foreman/internal/store"
)

// approvalWait bounds how long the gateway holds a chat's approval
// prompt open before answering deny on the user's behalf.
const approvalWait = 10 * time.Minute

// TaskDefaults carries the model selection every gateway-driven task
// uses.
type TaskDefaults struct {
	ModelID      string
	APIKey       string
	Models       []agent.ModelEntry
	AllowedTools []string
}

// TelegramGateway drives tasks from chat messages. Each incoming text
// becomes a goal; risky steps are approved by replying yes/no in the
// same chat.
type TelegramGateway struct {
	Bot      *tgbotapi.BotAPI
	Runner   Runner
	History  *store.HistoryStore
	Defaults TaskDefaults

	mu      sync.Mutex
	pending map[int64]chan bool // chat id -> open approval prompt
	busy    map[int64]bool      // chat id -> task in flight
}

func NewTelegramGateway(token string, runner Runner, history *store.HistoryStore, defaults TaskDefaults) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{
		Bot:      bot,
		Runner:   runner,
		History:  history,
		Defaults: defaults,
		pending:  make(map[int64]chan bool),
		busy:     make(map[int64]bool),
	}, nil
}

func (tg *TelegramGateway) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			tg.handleMessage(ctx, update.Message)
		}
	}
}

func (tg *TelegramGateway) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	log.Printf("[%s] %s", msg.From.UserName, text)

	if text == "/status" {
		phase, task, hb := observability.GetStatus()
		tg.reply(chatID, fmt.Sprintf("Phase: %s\nTask: %s\nLast heartbeat: %s", phase, task, hb.Format("15:04:05")))
		return
	}

	// A yes/no while an approval prompt is open is a decision, not a goal.
	if decision, isDecision := parseDecision(text); isDecision {
		if tg.resolveApproval(chatID, decision) {
			return
		}
	}

	tg.mu.Lock()
	if tg.busy[chatID] {
		tg.mu.Unlock()
		tg.reply(chatID, "Still working on the previous task. Reply yes/no if I asked for approval.")
		return
	}
	tg.busy[chatID] = true
	tg.mu.Unlock()

	go tg.runTask(ctx, chatID, text)
}

func (tg *TelegramGateway) runTask(ctx context.Context, chatID int64, goal string) {
	defer func() {
		tg.mu.Lock()
		delete(tg.busy, chatID)
		tg.mu.Unlock()
	}()

	session := fmt.Sprintf("%d", chatID)
	history, _ := tg.History.GetHistory(session, 10)

	seen := make(map[string]agent.Status)
	req := agent.Request{
		Goal:         goal,
		AllowedTools: tg.Defaults.AllowedTools,
		History:      history,
		ModelID:      tg.Defaults.ModelID,
		APIKey:       tg.Defaults.APIKey,
		Models:       tg.Defaults.Models,
		Hooks: agent.Hooks{
			OnProgress: func(steps []agent.Step) {
				tg.announceTransitions(chatID, steps, seen)
			},
			OnApprovalRequired: func(step agent.Step) bool {
				return tg.askApproval(chatID, step)
			},
		},
	}

	result, err := tg.Runner.ExecuteTask(ctx, req)
	if err != nil {
		log.Printf("task for chat %d failed: %v", chatID, err)
	}
	if result == nil {
		tg.reply(chatID, fmt.Sprintf("Task failed: %v", err))
		return
	}
	output := result.FinalOutput

	_ = tg.History.AddMessage(session, "human", goal)
	_ = tg.History.AddMessage(session, "ai", output)
	if result.Plan != nil {
		_ = tg.History.RecordRun(session, result.TaskID, goal, output, result.Plan.Steps)
	}

	tg.reply(chatID, output)
}

// announceTransitions sends one line per step that reached a terminal
// state since the last snapshot.
func (tg *TelegramGateway) announceTransitions(chatID int64, steps []agent.Step, seen map[string]agent.Status) {
	for _, s := range steps {
		if !s.Status.Terminal() || seen[s.ID] == s.Status {
			continue
		}
		seen[s.ID] = s.Status
		line := fmt.Sprintf("✅ %s — %s", s.Tool, s.Description)
		if s.Status == agent.StatusFailed {
			line = fmt.Sprintf("❌ %s — %s (%s)", s.Tool, s.Description, s.Error)
		}
		tg.reply(chatID, line)
	}
}

func (tg *TelegramGateway) askApproval(chatID int64, step agent.Step) bool {
	ch := make(chan bool, 1)

	tg.mu.Lock()
	tg.pending[chatID] = ch
	tg.mu.Unlock()

	defer func() {
		tg.mu.Lock()
		delete(tg.pending, chatID)
		tg.mu.Unlock()
	}()

	tg.reply(chatID, fmt.Sprintf("⚠️ *Approval required*\n\nTool: %s\nStep: %s\n\nReply *yes* to approve or *no* to deny.", step.Tool, step.Description))

	select {
	case decision := <-ch:
		return decision
	case <-time.After(approvalWait):
		tg.reply(chatID, "No reply, denying the step.")
		return false
	}
}

func (tg *TelegramGateway) resolveApproval(chatID int64, decision bool) bool {
	tg.mu.Lock()
	ch, ok := tg.pending[chatID]
	if ok {
		delete(tg.pending, chatID)
	}
	tg.mu.Unlock()

	if !ok {
		return false
	}
	ch <- decision
	return true
}

func parseDecision(text string) (decision bool, isDecision bool) {
	switch strings.ToLower(text) {
	case "yes", "y", "approve":
		return true, true
	case "no", "n", "deny":
		return false, true
	}
	return false, false
}

func (tg *TelegramGateway) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := tg.Bot.Send(msg); err != nil {
		log.Printf("failed to send to chat %d: %v", chatID, err)
	}
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id := int64(0)
	if _, err := fmt.Sscanf(chatID, "%d", &id); err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = "Markdown"
	_, err := tg.Bot.Send(msg)
	return err
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}
