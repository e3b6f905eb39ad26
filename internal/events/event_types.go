package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tokenauth/token-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventTokenIssued            EventType = "token_issued"
	EventAuthenticationRejected EventType = "authentication_rejected"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Username  string      `json:"username,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, username string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Username:  username,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID   string `json:"user_id"`
	HasEmail bool   `json:"has_email"`
	HasPhone bool   `json:"has_phone"`
}

// TokenIssuedPayload payload.
type TokenIssuedPayload struct {
	LoginID   string    `json:"login_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Rejection verdicts beyond the token statuses themselves.
const (
	VerdictMissingToken     = "missing_token"
	VerdictUnknownPrincipal = "unknown_principal"
)

// AuthenticationRejectedPayload payload. Verdict is the token status, or one
// of the Verdict constants when the token itself was not the problem.
type AuthenticationRejectedPayload struct {
	Status  domain.TokenStatus `json:"status"`
	Verdict string             `json:"verdict"`
	Reason  string             `json:"reason"`
	Path    string             `json:"path"`
}
