package shared

import (
	"go.uber.org/zap"
)

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	ServiceName string // "api", "prover_node" or "cli"
	GuestMode   bool   // true when running the proving guest
	Development bool   // true for development mode
}

// Logger wraps zap.Logger with additional context
type Logger struct {
	*zap.Logger
	serviceName string
}

// NewLogger creates a new logger instance based on the configuration
func NewLogger(config LoggerConfig) (*Logger, error) {
	var zapLogger *zap.Logger
	var err error

	if config.GuestMode {
		// The guest only reports failures; sample data must never reach the logs
		zapConfig := zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
		zapConfig.DisableCaller = true
		zapConfig.DisableStacktrace = true
		zapLogger, err = zapConfig.Build()
	} else if config.Development {
		// Development mode: console logging with debug level
		zapConfig := zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapLogger, err = zapConfig.Build()
	} else {
		// Production mode: structured JSON logging
		zapConfig := zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zapLogger, err = zapConfig.Build()
	}

	if err != nil {
		return nil, err
	}

	zapLogger = zapLogger.With(
		zap.String("service", config.ServiceName),
		zap.Bool("guest_mode", config.GuestMode),
	)

	return &Logger{
		Logger:      zapLogger,
		serviceName: config.ServiceName,
	}, nil
}

// NewLoggerFromEnv creates a logger using environment variables
func NewLoggerFromEnv(serviceName string) (*Logger, error) {
	config := LoggerConfig{
		ServiceName: serviceName,
		GuestMode:   GetEnvBoolOrDefault("GUEST_MODE", false),
		Development: GetEnvBoolOrDefault("DEVELOPMENT", false),
	}
	return NewLogger(config)
}

// WrapLogger adapts an existing zap logger (tests use zaptest loggers)
func WrapLogger(serviceName string, l *zap.Logger) *Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &Logger{Logger: l, serviceName: serviceName}
}

// Request-aware logging
func (l *Logger) WithRequest(requestID string) *zap.Logger {
	if requestID == "" {
		return l.Logger
	}
	return l.Logger.With(zap.String("request_id", requestID))
}

// Connection-aware logging methods
func (l *Logger) WithConnection(remoteAddr string) *zap.Logger {
	if remoteAddr == "" {
		return l.Logger
	}
	return l.Logger.With(zap.String("remote_addr", remoteAddr))
}

// Pipeline-stage-aware logging
func (l *Logger) WithStage(stage string) *zap.Logger {
	return l.Logger.With(zap.String("stage", stage))
}

// Critical error logging - always logs even in guest mode
func (l *Logger) Critical(msg string, fields ...zap.Field) {
	l.Logger.Error(msg, append(fields, zap.Bool("critical", true))...)
}

// Security event logging - for signature and auth failures
func (l *Logger) Security(msg string, fields ...zap.Field) {
	l.Logger.Warn(msg, append(fields, zap.Bool("security_event", true))...)
}

// ServiceName returns the service the logger was built for
func (l *Logger) ServiceName() string {
	return l.serviceName
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

// LogLevel constants for consistency
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)
