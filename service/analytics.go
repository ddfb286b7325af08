package service

import (
	"context"

	"github.com/nickyhof/BotDesk/core"
	"golang.org/x/sync/errgroup"
)

type Analytics struct {
	events crud[core.AnalyticsEvent]
}

func (s *Analytics) Track(ctx context.Context, event core.AnalyticsEvent) (*core.AnalyticsEvent, error) {
	if err := required("analytics event", "chatbotId", event.ChatbotID, "type", event.Type); err != nil {
		return nil, err
	}
	return s.events.insert(ctx, &event)
}

func (s *Analytics) Events(ctx context.Context, chatbotID string) ([]core.AnalyticsEvent, error) {
	return s.events.where(ctx, "chatbot_id", chatbotID)
}

// Summary counts a chatbot's events by type along with its conversations and leads.
func (s *Analytics) Summary(ctx context.Context, chatbotID string) (*core.AnalyticsSummary, error) {
	var (
		events        []core.AnalyticsEvent
		conversations []core.Conversation
		leads         []core.Lead
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = s.Events(gctx, chatbotID)
		return err
	})
	g.Go(func() (err error) {
		conversations, err = selectWhere[core.Conversation](gctx, s.events.facade, core.ConversationsTable, "chatbot_id", chatbotID)
		return err
	})
	g.Go(func() (err error) {
		leads, err = selectWhere[core.Lead](gctx, s.events.facade, core.LeadsTable, "chatbot_id", chatbotID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &core.AnalyticsSummary{
		ChatbotID:     chatbotID,
		Conversations: len(conversations),
		Leads:         len(leads),
		Events:        len(events),
		EventsByType:  map[string]int{},
	}
	for _, event := range events {
		summary.EventsByType[event.Type]++
	}
	return summary, nil
}
