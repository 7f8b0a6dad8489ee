// Package observability wires up the node's ambient stack: a structured
// zap logger, Datadog APM tracing and Sentry error reporting. None of it is
// part of the domain's wire contract (see httpapi), it only observes it.
package observability

import (
	"context"
	"fmt"
	"os"
	"time"

	ddtrace "github.com/DataDog/dd-trace-go/v2/ddtrace/tracer"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the optional environment-driven settings for the ambient
// observability stack. Every field is optional; a node with none of them
// set runs with tracing and error reporting both inert.
type Config struct {
	LogLevel string

	SentryDSN         string
	SentryEnvironment string

	DDEnv     string
	DDService string
	DDAgent   string
}

// LoadConfigFromEnv reads the observability knobs straight from the
// environment, mirroring the rest of the node's env-var-only configuration
// surface (see internal/config).
func LoadConfigFromEnv() Config {
	return Config{
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		SentryEnvironment: getEnvOrDefault("SENTRY_ENVIRONMENT", "development"),
		DDEnv:             getEnvOrDefault("DD_ENV", "development"),
		DDService:         getEnvOrDefault("DD_SERVICE", "mpc-node"),
		DDAgent:           os.Getenv("DD_AGENT_HOST"),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Manager owns the lifecycle of every ambient integration: a zap logger
// plus, when configured, Datadog tracing and Sentry error reporting.
type Manager struct {
	config        Config
	logger        *zap.Logger
	sugar         *zap.SugaredLogger
	datadogActive bool
	sentryActive  bool
}

// NewManager builds a Manager with a ready-to-use logger. Initialize must
// still be called to start tracing/error-reporting side effects.
func NewManager(config Config) (*Manager, error) {
	level, err := zapcore.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("observability: invalid LOG_LEVEL %q: %w", config.LogLevel, err)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("observability: building logger: %w", err)
	}

	return &Manager{
		config: config,
		logger: logger,
		sugar:  logger.Sugar(),
	}, nil
}

// Logger returns the structured logger used on hot paths (dispatcher,
// orchestrator, handlers).
func (m *Manager) Logger() *zap.Logger { return m.logger }

// Sugar returns the narrative, emoji-friendly logger used for
// startup/shutdown lifecycle messages.
func (m *Manager) Sugar() *zap.SugaredLogger { return m.sugar }

// Initialize starts Datadog tracing and Sentry error reporting if their
// respective configuration is present. A missing DSN/agent is not an
// error: the node runs fine without either.
func (m *Manager) Initialize() error {
	m.sugar.Info("🔭 initializing observability")

	if m.config.DDAgent != "" {
		ddtrace.Start(
			ddtrace.WithEnv(m.config.DDEnv),
			ddtrace.WithService(m.config.DDService),
			ddtrace.WithAgentAddr(m.config.DDAgent),
		)
		m.datadogActive = true
		m.sugar.Info("✅ datadog tracing initialized")
	}

	if m.config.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              m.config.SentryDSN,
			Environment:      m.config.SentryEnvironment,
			TracesSampleRate: 1.0,
		}); err != nil {
			m.sugar.Warnw("⚠️  failed to initialize Sentry", "error", err)
		} else {
			m.sentryActive = true
			m.sugar.Info("✅ sentry error reporting initialized")
		}
	}

	return nil
}

// CaptureError reports err to Sentry, if active, and always logs it at
// error level. Callers use this for InvariantViolation-class errors: bugs,
// not expected failure modes.
func (m *Manager) CaptureError(err error, fields ...zap.Field) {
	m.logger.Error(err.Error(), fields...)
	if m.sentryActive {
		sentry.CaptureException(err)
	}
}

// StartSpan starts a Datadog span for operationName if tracing is active,
// returning the (possibly nil) span and a context carrying it.
func (m *Manager) StartSpan(ctx context.Context, operationName string) (ddtrace.Span, context.Context) {
	if !m.datadogActive {
		return nil, ctx
	}
	return ddtrace.StartSpanFromContext(ctx, operationName)
}

// Shutdown flushes and stops every active integration. Call it once,
// during graceful shutdown, after the logger is no longer needed.
func (m *Manager) Shutdown() {
	m.sugar.Info("🔭 shutting down observability")

	if m.datadogActive {
		ddtrace.Stop()
	}
	if m.sentryActive {
		sentry.Flush(2 * time.Second)
	}
	_ = m.logger.Sync()
}
