// Package zaplog writes bus records as structured zap log entries.
package zaplog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
	berr "github.com/next-trace/scg-agent-bus/contract/errors"
)

const message = "agentbus record"

// Sink logs each record at Info, or at Error for a failed handle record.
type Sink struct {
	logger *zap.Logger
	owned  bool
}

var _ cbus.Sink = (*Sink)(nil)

// New wraps an existing logger. The caller keeps ownership of it.
func New(l *zap.Logger) *Sink { return &Sink{logger: l} }

// NewConsole builds a development console logger owned by the sink.
func NewConsole() (*Sink, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("zaplog console: %w: %w", berr.ErrSinkUnavailable, err)
	}

	return &Sink{logger: l.Named("agentbus"), owned: true}, nil
}

func (s *Sink) Write(ctx context.Context, rec cbus.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.logger == nil {
		return fmt.Errorf("zaplog write: %w", berr.ErrSinkUnavailable)
	}

	fields := []zap.Field{
		zap.Time("timestamp", rec.Timestamp),
		zap.String("kind", string(rec.Kind)),
		zap.String("topic", rec.Topic),
	}

	if rec.Payload != nil {
		fields = append(fields, zap.Any("payload", rec.Payload))
	}

	if rec.HandlerID != "" {
		fields = append(fields, zap.String("handler_id", rec.HandlerID))
	}

	if rec.Result != nil {
		fields = append(fields, zap.Any("result", rec.Result))
	}

	if rec.Bus != "" {
		fields = append(fields, zap.String("bus", rec.Bus))
	}

	if rec.Failed {
		s.logger.Error(message, append(fields, zap.Bool("failed", true))...)
		return nil
	}

	s.logger.Info(message, fields...)

	return nil
}

// Close flushes an owned logger. Sync errors on terminals are ignored.
func (s *Sink) Close() error {
	if s.owned && s.logger != nil {
		_ = s.logger.Sync()
	}

	return nil
}
