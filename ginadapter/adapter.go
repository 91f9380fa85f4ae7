package ginadapter

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/onion/errors"
	"github.com/kbukum/onion/logger"
	"github.com/kbukum/onion/pipeline"
)

// RequestIDHeader carries the request id in and out of the adapter.
const RequestIDHeader = "X-Request-Id"

// errResponseWritten stops a layer from running the handler again once a
// response has been sent. It is not retryable.
var errResponseWritten = errors.New(errors.ErrCodeInternal, "response already written", http.StatusInternalServerError)

// ParametersFunc derives call-time layer parameters from a request.
type ParametersFunc func(c *gin.Context) map[string]pipeline.Parameters

type options struct {
	params ParametersFunc
}

// Option configures Handler.
type Option func(*options)

// WithParameters sets the call-time layer parameters for each request.
func WithParameters(fn ParametersFunc) Option {
	return func(o *options) { o.params = fn }
}

// Handler returns a gin handler that executes h through p.
func Handler(p *pipeline.Pipeline, h gin.HandlerFunc, opts ...Option) gin.HandlerFunc {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	action := pipeline.Handler(func(ctx context.Context, args ...any) (any, error) {
		c, ok := contextArg(args)
		if !ok {
			return nil, errors.InvalidInput("args", "expected a single *gin.Context")
		}
		if c.Writer.Written() {
			return nil, errResponseWritten
		}
		if id, ok := logger.RequestIDFromContext(ctx); ok {
			c.Header(RequestIDHeader, id)
		}

		c.Request = c.Request.WithContext(ctx)
		seen := len(c.Errors)
		h(c)
		if len(c.Errors) > seen {
			return nil, c.Errors.Last().Err
		}
		return nil, nil
	})

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(RequestIDHeader); id != "" {
			ctx = logger.ContextWithRequestID(ctx, id)
		}

		var params map[string]pipeline.Parameters
		if o.params != nil {
			params = o.params(c)
		}

		if _, err := p.Execute(ctx, action, []any{c}, params); err != nil {
			if c.Writer.Written() {
				_ = c.Error(err)
				return
			}
			RespondWithError(c, err)
		}
	}
}

func contextArg(args []any) (*gin.Context, bool) {
	if len(args) != 1 {
		return nil, false
	}
	c, ok := args[0].(*gin.Context)
	return c, ok && c != nil
}
