package service

import (
	"time"

	"github.com/nickyhof/BotDesk/core"
	"github.com/nickyhof/BotDesk/ps"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig configures the tokens issued by Users.Login.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	// TokenTTL defaults to 24 hours.
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Services groups the per-entity services sharing one Facade.
type Services struct {
	Facade         *Facade
	Chatbots       *Chatbots
	KnowledgeBases *KnowledgeBases
	Users          *Users
	Subscriptions  *Subscriptions
	Conversations  *Conversations
	Leads          *Leads
	Analytics      *Analytics
	Integrations   *Integrations
	Invoices       *Invoices
}

func New(facade *Facade, cache *ps.Cache, auth AuthConfig) *Services {
	if auth.TokenTTL == 0 {
		auth.TokenTTL = 24 * time.Hour
	}
	if auth.BcryptCost == 0 {
		auth.BcryptCost = bcrypt.DefaultCost
	}

	return &Services{
		Facade:   facade,
		Chatbots: &Chatbots{crud[core.Chatbot]{facade, core.ChatbotsTable, true}},
		KnowledgeBases: &KnowledgeBases{
			crud: crud[core.KnowledgeBase]{facade, core.KnowledgeBasesTable, true},
			urls: crud[core.KnowledgeBaseURL]{facade, core.KnowledgeBaseURLsTable, false},
			faqs: crud[core.KnowledgeBaseFAQ]{facade, core.KnowledgeBaseFAQsTable, false},
		},
		Users: &Users{
			users:  crud[core.User]{facade, core.UsersTable, true},
			tokens: crud[core.AuthToken]{facade, core.AuthTokensTable, false},
			auth:   auth,
		},
		Subscriptions: &Subscriptions{
			crud:  crud[core.Subscription]{facade, core.SubscriptionsTable, true},
			plans: crud[core.SubscriptionPlan]{facade, core.SubscriptionPlansTable, false},
			cache: cache,
		},
		Conversations: &Conversations{crud[core.Conversation]{facade, core.ConversationsTable, true}},
		Leads:         &Leads{crud[core.Lead]{facade, core.LeadsTable, true}},
		Analytics:     &Analytics{crud[core.AnalyticsEvent]{facade, core.AnalyticsTable, false}},
		Integrations:  &Integrations{crud[core.Integration]{facade, core.IntegrationsTable, true}},
		Invoices:      &Invoices{crud[core.Invoice]{facade, core.InvoicesTable, false}},
	}
}
