package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/tokenauth/token-service/internal/events"
	"github.com/tokenauth/token-service/internal/observability"
)

// StartAuditWorker registers handlers that log auth events and count token verdicts.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) {
	if dispatcher == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dispatcher.Subscribe(events.EventUserRegistered, func(_ context.Context, e events.Event) error {
		fields := []zap.Field{zap.String("event_id", e.ID), zap.String("username", e.Username)}
		if p, ok := e.Payload.(events.UserRegisteredPayload); ok {
			fields = append(fields, zap.String("user_id", p.UserID), zap.Bool("email", p.HasEmail), zap.Bool("phone", p.HasPhone))
		}
		logger.Info("user registered", fields...)
		return nil
	})

	dispatcher.Subscribe(events.EventTokenIssued, func(_ context.Context, e events.Event) error {
		metrics.RecordTokenVerdict("issued")
		fields := []zap.Field{zap.String("event_id", e.ID), zap.String("username", e.Username)}
		if p, ok := e.Payload.(events.TokenIssuedPayload); ok {
			fields = append(fields, zap.Time("expires_at", p.ExpiresAt))
		}
		logger.Info("token issued", fields...)
		return nil
	})

	dispatcher.Subscribe(events.EventAuthenticationRejected, func(_ context.Context, e events.Event) error {
		fields := []zap.Field{zap.String("event_id", e.ID)}
		verdict := "rejected"
		if p, ok := e.Payload.(events.AuthenticationRejectedPayload); ok {
			verdict = p.Verdict
			if verdict == "" {
				verdict = string(p.Status)
			}
			fields = append(fields,
				zap.String("status", string(p.Status)),
				zap.String("verdict", verdict),
				zap.String("reason", p.Reason),
				zap.String("path", p.Path),
			)
		}
		metrics.RecordTokenVerdict(verdict)
		logger.Warn("authentication rejected", fields...)
		return nil
	})
}
