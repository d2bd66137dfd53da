package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service   string
	Component string
}

func NewServiceLogger(logger utils.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: utils.ToSlogLogger(logger).With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// operationStatus classifies err for logs. Expected outcomes such as a
// finished attempt being resubmitted are not errors from the service's view.
func operationStatus(err error) (string, slog.Level) {
	switch {
	case err == nil:
		return "success", slog.LevelInfo
	case IsValidation(err):
		return "validation_error", slog.LevelWarn
	case IsNotFound(err):
		return "not_found", slog.LevelInfo
	case IsStateError(err):
		return "state_conflict", slog.LevelWarn
	case IsTimeExpired(err):
		return "time_expired", slog.LevelInfo
	case IsRateLimited(err):
		return "rate_limited", slog.LevelWarn
	}
	return "error", slog.LevelError
}

// LogOperation records the outcome of one service call
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, sessionID, resourceID string, duration time.Duration, err error) {
	status, level := operationStatus(err)

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("session_id", sessionID),
		slog.String("resource_id", resourceID),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		if retry, ok := RetryAfter(err); ok {
			attrs = append(attrs, slog.Duration("retry_after", retry))
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

// ContextualLogger times one operation and logs its result
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	sessionID string
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation, sessionID string) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		sessionID: sessionID,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(resourceID string, err error) {
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.sessionID, resourceID, time.Since(cl.startTime), err)
}
