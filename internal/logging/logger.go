// Package logging provides categorized structured logging for djangify.
// Every subsystem logs through Get(category), which returns a zap logger
// tagged with the category name. Until Init is called all loggers are no-ops.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Process startup, config
	CategoryPipeline  Category = "pipeline"  // Stage controller
	CategoryPlanner   Category = "planner"   // Plan stage, Ruby inventory
	CategoryDiscovery Category = "discovery" // Chunked summarization, batched analysis
	CategoryConvert   Category = "convert"   // Blueprint synthesis, repair, refinement
	CategoryBuild     Category = "build"     // Django tree materialization
	CategoryReport    Category = "report"    // Integration report, README
	CategoryAPI       Category = "api"       // LLM API calls
	CategoryStore     Category = "store"     // Run ledger
)

// Options configures the process-wide logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or text
	File   string // optional; appended to in addition to stderr
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	loggers = make(map[Category]*zap.Logger)
)

// Init builds the base logger. It can be called again to reconfigure;
// previously returned category loggers keep the old core.
func Init(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	if strings.EqualFold(opts.Format, "text") {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	SetBase(logger)
	return logger, nil
}

// SetBase installs an already built logger (the CLI and tests use this).
func SetBase(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mu.Lock()
	base = logger
	loggers = make(map[Category]*zap.Logger)
	mu.Unlock()
}

// Get returns the logger for a category.
func Get(category Category) *zap.Logger {
	mu.RLock()
	l, ok := loggers[category]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l = base.With(zap.String("category", string(category)))
	loggers[category] = l
	return l
}

// Sync flushes the base logger. Errors from syncing stderr are ignored.
func Sync() {
	mu.RLock()
	l := base
	mu.RUnlock()
	_ = l.Sync()
}

// ParseLevel maps a config level string onto a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Timer measures an operation and logs its duration on Stop.
type Timer struct {
	category  Category
	operation string
	start     time.Time
}

// StartTimer starts timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, operation: operation, start: time.Now()}
}

// Stop logs the elapsed time at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("operation finished",
		zap.String("operation", t.operation),
		zap.Duration("elapsed", elapsed))
	return elapsed
}
