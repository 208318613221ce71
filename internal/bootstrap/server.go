package bootstrap

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/logger"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

type EngineConfig struct {
	Gatherer prometheus.Gatherer
	// Registerer, when set, receives the per-request HTTP collectors.
	Registerer prometheus.Registerer
	SwaggerDir string
	// SwaggerDoc is the file under SwaggerDir served as /swagger/doc.json.
	SwaggerDoc string
}

// NewEngine builds a gin engine with request ids, zap request logging,
// request metrics, recovery, /healthz, /metrics and the swagger UI.
func NewEngine(log *zap.Logger, cfg EngineConfig) *gin.Engine {
	r := gin.New()
	r.Use(logger.RequestID(), logger.GinMiddleware(log))
	if cfg.Registerer != nil {
		r.Use(metrics.NewHTTP(cfg.Registerer).GinMiddleware())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if cfg.SwaggerDir != "" && cfg.SwaggerDoc != "" {
		r.GET("/swagger/*any", swaggerHandler(filepath.Join(cfg.SwaggerDir, cfg.SwaggerDoc)))
	}
	return r
}

func swaggerHandler(docPath string) gin.HandlerFunc {
	ui := httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))
	return func(c *gin.Context) {
		if c.Param("any") == "/doc.json" {
			c.File(docPath)
			return
		}
		ui.ServeHTTP(c.Writer, c.Request)
	}
}

// Run serves handler on addr and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("http server shutting down", zap.String("addr", addr))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown http server")
		}
		return nil
	}
}
