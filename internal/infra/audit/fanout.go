package audit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/logger"
)

// Sink is a named audit destination.
type Sink struct {
	Name string
	Sink port.AuditSink
}

// Fanout delivers each login attempt to every configured sink concurrently.
type Fanout struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewFanout builds a fan-out over the non-nil sinks.
func NewFanout(log *zap.Logger, sinks ...Sink) *Fanout {
	if log == nil {
		log = zap.NewNop()
	}
	active := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s.Sink != nil {
			active = append(active, s)
		}
	}
	return &Fanout{sinks: active, logger: log}
}

// Len reports how many sinks are attached.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// RecordLoginAttempt writes to all sinks and joins their failures. A failing
// sink does not stop delivery to the others.
func (f *Fanout) RecordLoginAttempt(ctx context.Context, attempt domain.LoginAttempt) error {
	if len(f.sinks) == 0 {
		return nil
	}

	errs := make([]error, len(f.sinks))
	var g errgroup.Group
	for i, s := range f.sinks {
		g.Go(func() error {
			if err := s.Sink.RecordLoginAttempt(ctx, attempt); err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.Name, err)
				f.logger.Warn("audit sink failed",
					zap.String("sink", s.Name),
					zap.String("email", logger.MaskEmail(attempt.Email)),
					zap.String("outcome", string(attempt.Outcome)),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

var _ port.AuditSink = (*Fanout)(nil)
