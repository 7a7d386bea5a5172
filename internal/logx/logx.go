package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	Output string // stdout, stderr or a file path
	// colours in console format
	Color bool
}

var (
	mu sync.RWMutex

	// log file opened by Init, closed when Init runs again
	file   *os.File
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: true}).
		With().Timestamp().Logger()
)

// Init replaces the process logger. Until it is called, logs go to stderr in
// console format at debug level.
func Init(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return fmt.Errorf("invalid log level '%s': %w", opts.Level, err)
		}
		level = l
	}

	var out io.Writer
	var f *os.File
	switch strings.ToLower(opts.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		var err error
		f, err = os.OpenFile(opts.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file '%s': %w", opts.Output, err)
		}
		out = f
	}

	if strings.ToLower(opts.Format) != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: !opts.Color}
	}

	SetLogger(zerolog.New(out).Level(level).With().Timestamp().Logger())

	mu.Lock()
	prev := file
	file = f
	mu.Unlock()
	if prev != nil {
		return prev.Close()
	}
	return nil
}

// SetLogger swaps the underlying logger; tests use it to capture output.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

// --- Public API ---

func Debug(component, msg string, args ...any) {
	get().Debug().Str("component", component).Msgf(msg, args...)
}

func Info(component, msg string, args ...any) {
	get().Info().Str("component", component).Msgf(msg, args...)
}

func Warn(component, msg string, args ...any) {
	get().Warn().Str("component", component).Msgf(msg, args...)
}

func Error(component, msg string, args ...any) {
	get().Error().Str("component", component).Msgf(msg, args...)
}

// L logs an info line bound to a session id.
func L(id, component, msg string, args ...any) {
	get().Info().Str("component", component).Str("session", id).Msgf(msg, args...)
}
