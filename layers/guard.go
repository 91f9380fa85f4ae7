package layers

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/kbukum/onion/di"
	apperrors "github.com/kbukum/onion/errors"
	"github.com/kbukum/onion/logger"
	"github.com/kbukum/onion/pipeline"
)

// TimeoutParams configures the timeout layer.
type TimeoutParams struct {
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Operation string        `mapstructure:"operation"`
}

// Timeout gives the inner chain a deadline. Handlers must observe their
// context for the deadline to interrupt them.
type Timeout struct {
	params TimeoutParams
}

// NewTimeout creates a timeout layer.
func NewTimeout(args di.Args) (*Timeout, error) {
	l := &Timeout{params: TimeoutParams{Timeout: 30 * time.Second, Operation: "pipeline"}}
	return l, l.SetParameters(pipeline.Parameters(args))
}

// SetParameters decodes params over the current configuration.
func (l *Timeout) SetParameters(params pipeline.Parameters) error {
	return pipeline.Decode(params, &l.params)
}

// Execute implements pipeline.Middleware.
func (l *Timeout) Execute(ctx context.Context, args []any, next pipeline.Next) (any, error) {
	inner, cancel := context.WithTimeout(ctx, l.params.Timeout)
	defer cancel()

	out, err := next(inner, args...)
	if err != nil && ctx.Err() == nil && errors.Is(inner.Err(), context.DeadlineExceeded) {
		if _, ok := apperrors.AsAppError(err); !ok {
			return out, apperrors.Timeout(l.params.Operation).
				WithCause(err).
				WithDetail("timeout", l.params.Timeout.String())
		}
	}
	return out, err
}

// Recover turns a panic in the inner chain into an INTERNAL_ERROR.
type Recover struct {
	log *logger.Logger
}

// newRecover creates a recover layer. It takes no parameters.
func newRecover(e *env, _ di.Args) (*Recover, error) {
	return &Recover{log: e.log}, nil
}

// SetParameters accepts and ignores params.
func (l *Recover) SetParameters(pipeline.Parameters) error {
	return nil
}

// Execute implements pipeline.Middleware.
func (l *Recover) Execute(ctx context.Context, args []any, next pipeline.Next) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithContext(ctx).Error("recovered from panic in pipeline", logger.Fields(
				logger.FieldLayer, Names.Recover,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			))
			out, err = nil, apperrors.Internal(fmt.Errorf("panic: %v", r))
		}
	}()
	return next(ctx, args...)
}
