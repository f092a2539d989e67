package services

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/platform/logger"
	"go.uber.org/zap"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Logger *zap.Logger
}

// GetLogger gets the logger from context, falling back to the service's own logger
func (s *BaseService) GetLogger(ctx context.Context) *zap.Logger {
	if l := logger.FromContext(ctx); l.Core().Enabled(zap.ErrorLevel) {
		return l
	}
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, fields ...zap.Field) {
	s.GetLogger(ctx).Error(msg, append([]zap.Field{zap.Error(err)}, fields...)...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, fields ...zap.Field) {
	s.GetLogger(ctx).Info(msg, fields...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, fields ...zap.Field) {
	s.GetLogger(ctx).Debug(msg, fields...)
}
