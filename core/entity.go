package core

// Table names used by the service facade. Remote rows and mock records share them.
const (
	ChatbotsTable          = "chatbots"
	KnowledgeBasesTable    = "knowledge_bases"
	KnowledgeBaseURLsTable = "knowledge_base_urls"
	KnowledgeBaseFAQsTable = "knowledge_base_faqs"
	UsersTable             = "users"
	AuthTokensTable        = "auth_tokens"
	SubscriptionPlansTable = "subscription_plans"
	SubscriptionsTable     = "subscriptions"
	ConversationsTable     = "conversations"
	LeadsTable             = "leads"
	AnalyticsTable         = "analytics_events"
	IntegrationsTable      = "integrations"
	InvoicesTable          = "invoices"
)

type Chatbot struct {
	ID           string   `json:"id"`
	UserID       string   `json:"userId"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Status       string   `json:"status"`
	Model        string   `json:"model,omitempty"`
	SystemPrompt string   `json:"systemPrompt,omitempty"`
	Settings     JSONText `json:"settings,omitempty"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

type KnowledgeBase struct {
	ID          string `json:"id"`
	ChatbotID   string `json:"chatbotId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type KnowledgeBaseURL struct {
	ID              string `json:"id"`
	KnowledgeBaseID string `json:"knowledgeBaseId"`
	URL             string `json:"url"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}

type KnowledgeBaseFAQ struct {
	ID              string `json:"id"`
	KnowledgeBaseID string `json:"knowledgeBaseId"`
	Question        string `json:"question"`
	Answer          string `json:"answer"`
	CreatedAt       string `json:"createdAt"`
}

// User is a dashboard account. PasswordHash never leaves the service layer in API payloads.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	Role         string `json:"role"`
	PasswordHash string `json:"passwordHash,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type AuthToken struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	CreatedAt string `json:"createdAt"`
}

type SubscriptionPlan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Interval    string   `json:"interval"`
	MaxChatbots int64    `json:"maxChatbots"`
	Features    JSONText `json:"features,omitempty"`
}

type Subscription struct {
	ID               string `json:"id"`
	UserID           string `json:"userId"`
	PlanID           string `json:"planId"`
	Status           string `json:"status"`
	CurrentPeriodEnd string `json:"currentPeriodEnd,omitempty"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type Conversation struct {
	ID        string   `json:"id"`
	ChatbotID string   `json:"chatbotId"`
	VisitorID string   `json:"visitorId,omitempty"`
	Messages  JSONText `json:"messages,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// Message is one turn of a Conversation; conversations store them as a JSON array.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	SentAt  string `json:"sentAt"`
}

type Lead struct {
	ID             string `json:"id"`
	ChatbotID      string `json:"chatbotId"`
	ConversationID string `json:"conversationId,omitempty"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

type AnalyticsEvent struct {
	ID        string   `json:"id"`
	ChatbotID string   `json:"chatbotId"`
	Type      string   `json:"type"`
	Payload   JSONText `json:"payload,omitempty"`
	CreatedAt string   `json:"createdAt"`
}

// AnalyticsSummary aggregates a chatbot's activity.
type AnalyticsSummary struct {
	ChatbotID     string         `json:"chatbotId"`
	Conversations int            `json:"conversations"`
	Leads         int            `json:"leads"`
	Events        int            `json:"events"`
	EventsByType  map[string]int `json:"eventsByType"`
}

type Integration struct {
	ID        string   `json:"id"`
	ChatbotID string   `json:"chatbotId"`
	Type      string   `json:"type"`
	Enabled   bool     `json:"enabled"`
	Config    JSONText `json:"config,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

type Invoice struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status"`
	PaidAt    string  `json:"paidAt,omitempty"`
	CreatedAt string  `json:"createdAt"`
}
