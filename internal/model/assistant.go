package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// SegmentType discriminates the Segment tagged union.
type SegmentType string

const (
	SegmentText   SegmentType = "text"
	SegmentLink   SegmentType = "link"
	SegmentButton SegmentType = "button"
	SegmentAction SegmentType = "action"
)

// Segment is a typed fragment of an assistant message supporting rich
// rendering. Which fields are meaningful depends on Type: Text for text
// segments, URL+Label for links, Label+Action for buttons, Action+Payload for
// actions.
type Segment struct {
	Type    SegmentType       `json:"type"`
	Text    string            `json:"text,omitempty"`
	URL     string            `json:"url,omitempty"`
	Label   string            `json:"label,omitempty"`
	Action  string            `json:"action,omitempty"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Message statuses reported by the assistant backend. Terminal statuses stop
// the update poll.
const (
	MessageCompleted    = "completed"
	MessageAwaitingUser = "awaiting_user"
	MessageError        = "error"
	MessageFailed       = "failed"
	MessageRateLimited  = "rate_limited"
	MessagePending      = "pending"
)

// AssistantMessage is a normalized chat message. Content is never empty after
// normalization.
type AssistantMessage struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Status    string     `json:"status"`
	Content   []Segment  `json:"content"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Conversation is a normalized conversation list entry, used both for the
// assistant and for company-to-company messaging.
type Conversation struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	CompanyName        string     `json:"company_name,omitempty"`
	Status             string     `json:"status,omitempty"`
	LastMessagePreview string     `json:"last_message_preview,omitempty"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
}
