package application

import "go.uber.org/zap"

// ExceptionLogger is an endpoint exception handler that logs at warn level.
type ExceptionLogger struct {
	logger *zap.Logger
}

// NewExceptionHandler returns an ExceptionLogger writing to a named child of logger.
func NewExceptionHandler(logger *zap.Logger) *ExceptionLogger {
	return &ExceptionLogger{logger: logger.Named("exceptions")}
}

// HandleException logs message and err.
func (h *ExceptionLogger) HandleException(message string, err error) {
	h.logger.Warn(message, zap.Error(err))
}
