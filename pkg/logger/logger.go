package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the ctx-aware logging interface shared by the worker and the API server.
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
	Sync() error
}

type ctxKey string

const (
	keyJobID    ctxKey = "job_id"
	keyJobType  ctxKey = "job_type"
	keyWorkerID ctxKey = "worker_id"
	keyMsgID    ctxKey = "message_id"
)

// WithJobID attaches the job id to ctx so every log line of the job carries it.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, keyJobID, jobID)
}

// WithJobType attaches the job type to ctx.
func WithJobType(ctx context.Context, jobType string) context.Context {
	return context.WithValue(ctx, keyJobType, jobType)
}

// WithWorkerID attaches the processor goroutine id to ctx.
func WithWorkerID(ctx context.Context, workerID int) context.Context {
	return context.WithValue(ctx, keyWorkerID, workerID)
}

// WithMessageID attaches the transport message id to ctx.
func WithMessageID(ctx context.Context, msgID string) context.Context {
	return context.WithValue(ctx, keyMsgID, msgID)
}

// JobID returns the job id stored in ctx, if any.
func JobID(ctx context.Context) string {
	id, _ := ctx.Value(keyJobID).(string)
	return id
}

// ZapLogger Zap backed Logger
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger builds a JSON zap logger writing to stdout.
func NewZapLogger(level string) (Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogger{logger: logger}, nil
}

// NewNop returns a Logger that discards everything. Used by tests.
func NewNop() Logger {
	return &ZapLogger{logger: zap.NewNop()}
}

// extractFields pulls the job scoped fields out of ctx
func (l *ZapLogger) extractFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)
	if ctx == nil {
		return fields
	}

	if jobID, ok := ctx.Value(keyJobID).(string); ok && jobID != "" {
		fields = append(fields, zap.String("job_id", jobID))
	}
	if jobType, ok := ctx.Value(keyJobType).(string); ok && jobType != "" {
		fields = append(fields, zap.String("job_type", jobType))
	}
	if workerID, ok := ctx.Value(keyWorkerID).(int); ok {
		fields = append(fields, zap.Int("worker_id", workerID))
	}
	if msgID, ok := ctx.Value(keyMsgID).(string); ok && msgID != "" {
		fields = append(fields, zap.String("message_id", msgID))
	}

	return fields
}

func (l *ZapLogger) Debugf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Infof(ctx context.Context, format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Warnf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Errorf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

// Sync flushes buffered log entries
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
