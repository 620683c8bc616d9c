package chat

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edulead/core"
	"github.com/trezcool/edulead/core/lead"
)

// Roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"` // UTC
}

// Session is a chat transcript keyed by an externally supplied session ID.
// LeadDraft collects lead details mentioned during the chat; it is never a live Lead.
type Session struct {
	ID        int           `json:"id"`
	SessionID string        `json:"session_id"`
	Messages  []Message     `json:"messages"`
	LeadDraft *lead.NewLead `json:"lead_draft,omitempty"`
	CreatedAt time.Time     `json:"created_at"` // UTC
}

// NewMessage is a visitor message posted to the chat widget.
type NewMessage struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
	Message   string `json:"message" validate:"required,max=2000"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.SessionID = core.CleanString(nm.SessionID)
	nm.Message = core.CleanString(nm.Message)
	return validate.Struct(nm)
}

type Reply struct {
	SessionID string    `json:"session_id"`
	Response  string    `json:"response"`
	Messages  []Message `json:"messages"`
}
