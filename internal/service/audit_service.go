package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/freelancer-bff/internal/events"
)

// AuditSink accepts events for asynchronous persistence.
type AuditSink interface {
	Enqueue(event events.Event) bool
}

// AuditService logs authentication outcomes and forwards them to the audit sink.
type AuditService struct {
	dispatcher events.Dispatcher
	sink       AuditSink
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, sink AuditSink, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, sink: sink, logger: logger}
}

// RegisterHandlers subscribes to every audit event type.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleRejection)
	a.dispatcher.Subscribe(events.EventAuthenticationRejected, a.handleRejection)
	a.dispatcher.Subscribe(events.EventAccessDenied, a.handleRejection)
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), eventFields(event)...)
	a.forward(event)
	return nil
}

func (a *AuditService) handleRejection(_ context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type), eventFields(event)...)
	a.forward(event)
	return nil
}

func (a *AuditService) forward(event events.Event) {
	if a.sink == nil {
		return
	}
	a.sink.Enqueue(event)
}

func eventFields(event events.Event) []zap.Field {
	fields := []zap.Field{zap.String("event_id", event.ID)}
	if event.SubjectID != nil {
		fields = append(fields, zap.Int64("subject_id", *event.SubjectID))
	}
	if event.Username != "" {
		fields = append(fields, zap.String("username", event.Username))
	}
	if event.Path != "" {
		fields = append(fields, zap.String("method", event.Method), zap.String("path", event.Path))
	}
	if event.Reason != "" {
		fields = append(fields, zap.String("reason", event.Reason))
	}
	if event.RemoteIP != "" {
		fields = append(fields, zap.String("remote_ip", event.RemoteIP))
	}
	return fields
}
