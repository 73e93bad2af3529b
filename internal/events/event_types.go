package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/freelancer-bff/internal/domain"
)

// EventType enumerates authentication audit events.
type EventType string

const (
	EventLoginSucceeded         EventType = "login_succeeded"
	EventLoginFailed            EventType = "login_failed"
	EventAuthenticationRejected EventType = "authentication_rejected"
	EventAccessDenied           EventType = "access_denied"
)

// AllTypes lists every event type, in declaration order.
var AllTypes = []EventType{
	EventLoginSucceeded,
	EventLoginFailed,
	EventAuthenticationRejected,
	EventAccessDenied,
}

// Event is one authentication or authorization outcome.
type Event struct {
	ID         string        `json:"id"`
	Type       EventType     `json:"type"`
	SubjectID  *int64        `json:"subject_id,omitempty"`
	Username   string        `json:"username,omitempty"`
	Method     string        `json:"method,omitempty"`
	Path       string        `json:"path,omitempty"`
	RemoteIP   string        `json:"remote_ip,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Roles      []domain.Role `json:"roles,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType) Event {
	return Event{ID: uuid.NewString(), Type: eventType, OccurredAt: time.Now().UTC()}
}

// WithSubject sets the subject id.
func (e Event) WithSubject(id int64) Event {
	e.SubjectID = &id
	return e
}
