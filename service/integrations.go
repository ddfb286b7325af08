package service

import (
	"context"

	"github.com/nickyhof/BotDesk/core"
)

type Integrations struct {
	crud[core.Integration]
}

func (s *Integrations) GetAll(ctx context.Context, chatbotID string) ([]core.Integration, error) {
	return s.where(ctx, "chatbot_id", chatbotID)
}

func (s *Integrations) Create(ctx context.Context, integration core.Integration) (*core.Integration, error) {
	if err := required("integration", "chatbotId", integration.ChatbotID, "type", integration.Type); err != nil {
		return nil, err
	}
	if integration.Config == "" {
		integration.Config = "{}"
	}
	return s.insert(ctx, &integration)
}

func (s *Integrations) SetEnabled(ctx context.Context, id string, enabled bool) (*core.Integration, error) {
	return s.Update(ctx, id, map[string]any{"enabled": enabled})
}
