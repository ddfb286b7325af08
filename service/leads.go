package service

import (
	"context"

	"github.com/nickyhof/BotDesk/core"
)

type Leads struct {
	crud[core.Lead]
}

func (s *Leads) GetAll(ctx context.Context, chatbotID string) ([]core.Lead, error) {
	return s.where(ctx, "chatbot_id", chatbotID)
}

func (s *Leads) Create(ctx context.Context, lead core.Lead) (*core.Lead, error) {
	if err := required("lead", "chatbotId", lead.ChatbotID); err != nil {
		return nil, err
	}
	if lead.Email == "" && lead.Phone == "" {
		return nil, invalid("lead requires email or phone")
	}
	if lead.Email != "" && !validEmail(lead.Email) {
		return nil, invalid("%q is not a valid email", lead.Email)
	}
	if lead.Status == "" {
		lead.Status = "new"
	}
	return s.insert(ctx, &lead)
}

// DeleteForChatbot removes every lead captured by chatbotID and returns how many went.
func (s *Leads) DeleteForChatbot(ctx context.Context, chatbotID string) (int, error) {
	if chatbotID == "" {
		return 0, invalid("lead delete requires chatbotId")
	}
	return s.deleteWhere(ctx, "chatbot_id", chatbotID)
}
