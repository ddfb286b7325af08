package service

import (
	"context"

	"github.com/nickyhof/BotDesk/core"
)

type Conversations struct {
	crud[core.Conversation]
}

func (s *Conversations) GetAll(ctx context.Context, chatbotID string) ([]core.Conversation, error) {
	return s.where(ctx, "chatbot_id", chatbotID)
}

func (s *Conversations) Create(ctx context.Context, conversation core.Conversation) (*core.Conversation, error) {
	if err := required("conversation", "chatbotId", conversation.ChatbotID); err != nil {
		return nil, err
	}
	if conversation.Messages == "" {
		conversation.Messages = "[]"
	}
	return s.insert(ctx, &conversation)
}

// Messages decodes the conversation's message log.
func (s *Conversations) Messages(conversation *core.Conversation) ([]core.Message, error) {
	messages := []core.Message{}
	if err := conversation.Messages.Decode(&messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// AppendMessage adds message to the end of the conversation's log and returns
// the updated conversation, or nil when it does not exist.
func (s *Conversations) AppendMessage(ctx context.Context, id string, message core.Message) (*core.Conversation, error) {
	if err := required("message", "role", message.Role, "content", message.Content); err != nil {
		return nil, err
	}

	conversation, err := s.GetByID(ctx, id)
	if err != nil || conversation == nil {
		return nil, err
	}
	messages, err := s.Messages(conversation)
	if err != nil {
		return nil, err
	}

	if message.SentAt == "" {
		message.SentAt = s.facade.now()
	}
	text, err := core.NewJSONText(append(messages, message))
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, id, map[string]any{"messages": string(text)})
}
