package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/nickyhof/BotDesk/core"
	"github.com/tidwall/match"
)

type KnowledgeBases struct {
	crud[core.KnowledgeBase]
	urls crud[core.KnowledgeBaseURL]
	faqs crud[core.KnowledgeBaseFAQ]
}

// GetAll returns the knowledge bases of chatbotID.
func (s *KnowledgeBases) GetAll(ctx context.Context, chatbotID string) ([]core.KnowledgeBase, error) {
	return s.where(ctx, "chatbot_id", chatbotID)
}

func (s *KnowledgeBases) Create(ctx context.Context, kb core.KnowledgeBase) (*core.KnowledgeBase, error) {
	if err := required("knowledge base", "chatbotId", kb.ChatbotID, "name", kb.Name); err != nil {
		return nil, err
	}
	return s.insert(ctx, &kb)
}

// Delete removes the knowledge base together with its URLs and FAQs.
func (s *KnowledgeBases) Delete(ctx context.Context, id string) error {
	if id == "" {
		return invalid("knowledge base delete requires id")
	}
	if _, err := s.urls.deleteWhere(ctx, "knowledge_base_id", id); err != nil {
		return err
	}
	if _, err := s.faqs.deleteWhere(ctx, "knowledge_base_id", id); err != nil {
		return err
	}
	return s.crud.Delete(ctx, id)
}

func (s *KnowledgeBases) AddURL(ctx context.Context, kbID, rawURL string) (*core.KnowledgeBaseURL, error) {
	if err := required("knowledge base url", "knowledgeBaseId", kbID, "url", rawURL); err != nil {
		return nil, err
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, invalid("%q is not an http(s) url", rawURL)
	}
	return s.urls.insert(ctx, &core.KnowledgeBaseURL{
		KnowledgeBaseID: kbID,
		URL:             rawURL,
		Status:          "pending",
	})
}

func (s *KnowledgeBases) URLs(ctx context.Context, kbID string) ([]core.KnowledgeBaseURL, error) {
	return s.urls.where(ctx, "knowledge_base_id", kbID)
}

func (s *KnowledgeBases) RemoveURL(ctx context.Context, id string) error {
	return s.urls.Delete(ctx, id)
}

func (s *KnowledgeBases) AddFAQ(ctx context.Context, kbID, question, answer string) (*core.KnowledgeBaseFAQ, error) {
	if err := required("faq", "knowledgeBaseId", kbID, "question", question, "answer", answer); err != nil {
		return nil, err
	}
	return s.faqs.insert(ctx, &core.KnowledgeBaseFAQ{
		KnowledgeBaseID: kbID,
		Question:        question,
		Answer:          answer,
	})
}

func (s *KnowledgeBases) FAQs(ctx context.Context, kbID string) ([]core.KnowledgeBaseFAQ, error) {
	return s.faqs.where(ctx, "knowledge_base_id", kbID)
}

func (s *KnowledgeBases) RemoveFAQ(ctx context.Context, id string) error {
	return s.faqs.Delete(ctx, id)
}

// SearchFAQs returns the FAQs whose question or answer matches pattern,
// case-insensitively. Patterns without * or ? match anywhere in the text.
func (s *KnowledgeBases) SearchFAQs(ctx context.Context, kbID, pattern string) ([]core.KnowledgeBaseFAQ, error) {
	faqs, err := s.FAQs(ctx, kbID)
	if err != nil {
		return nil, err
	}

	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if !strings.ContainsAny(pattern, "*?") {
		pattern = "*" + pattern + "*"
	}

	found := []core.KnowledgeBaseFAQ{}
	for _, faq := range faqs {
		if match.Match(strings.ToLower(faq.Question), pattern) || match.Match(strings.ToLower(faq.Answer), pattern) {
			found = append(found, faq)
		}
	}
	return found, nil
}
