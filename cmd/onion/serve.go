package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/kbukum/onion/errors"
	"github.com/kbukum/onion/ginadapter"
	"github.com/kbukum/onion/logger"
	"github.com/kbukum/onion/pipeline"
	"github.com/kbukum/onion/version"
)

func newServeCommand(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the echo action over HTTP through the configured layers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(a *app) error {
				if addr != "" {
					a.cfg.HTTP.Addr = addr
				}
				return serve(cmd.Context(), a)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	if !a.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      newRouter(a),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", logger.Fields("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type runRequest struct {
	Args   []string                       `json:"args"`
	Params map[string]pipeline.Parameters `json:"params"`

	err error
}

type runResponse struct {
	Result any `json:"result"`
}

// newRouter exposes the pipeline: GET /layers lists it, POST /run executes
// the echo action with the request arguments.
func newRouter(a *app) *gin.Engine {
	r := gin.New()

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	})

	r.GET("/layers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"layers": a.pipeline.Layers()})
	})

	r.POST("/run", ginadapter.Handler(a.pipeline, func(c *gin.Context) {
		req := c.MustGet(runRequestKey).(*runRequest)
		if req.err != nil {
			_ = c.Error(req.err)
			return
		}
		out, err := newEcho(0)(c.Request.Context(), req.Args...)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, runResponse{Result: out})
	}, ginadapter.WithParameters(bindRunRequest)))

	return r
}

const runRequestKey = "onion.run_request"

// bindRunRequest decodes the body once, before the pipeline runs, and hands
// its call-time parameters to the layers.
func bindRunRequest(c *gin.Context) map[string]pipeline.Parameters {
	req := new(runRequest)
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			req.err = errors.InvalidInput("body", err.Error())
		}
	}
	c.Set(runRequestKey, req)
	return req.Params
}
