package service

import (
	"context"

	"github.com/nickyhof/BotDesk/core"
)

const (
	ChatbotActive   = "active"
	ChatbotInactive = "inactive"
	ChatbotDraft    = "draft"
)

type Chatbots struct {
	crud[core.Chatbot]
}

// GetAll returns the chatbots owned by userID.
func (s *Chatbots) GetAll(ctx context.Context, userID string) ([]core.Chatbot, error) {
	return s.where(ctx, "user_id", userID)
}

func (s *Chatbots) Create(ctx context.Context, bot core.Chatbot) (*core.Chatbot, error) {
	if err := required("chatbot", "userId", bot.UserID, "name", bot.Name); err != nil {
		return nil, err
	}
	if bot.Status == "" {
		bot.Status = ChatbotActive
	}
	return s.insert(ctx, &bot)
}

func (s *Chatbots) SetStatus(ctx context.Context, id, status string) (*core.Chatbot, error) {
	switch status {
	case ChatbotActive, ChatbotInactive, ChatbotDraft:
	default:
		return nil, invalid("unknown chatbot status %q", status)
	}
	return s.Update(ctx, id, map[string]any{"status": status})
}
