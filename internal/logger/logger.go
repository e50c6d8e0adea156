// Package logger provides the leveled, colorized logger shared by the CLI and the core.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// Level represents logging verbosity
type Level int

const (
	LevelError Level = iota // Always shown
	LevelWarn               // Always shown
	LevelInfo               // Normal mode
	LevelDebug              // Verbose mode only
)

// Logger provides structured, leveled logging with color support
type Logger struct {
	level     Level
	useColors bool
	errorLog  *log.Logger
	warnLog   *log.Logger
	infoLog   *log.Logger
	debugLog  *log.Logger
}

// New creates a logger with specified level
func New(verbose bool) *Logger {
	level := LevelInfo
	if verbose {
		level = LevelDebug
	}

	return &Logger{
		level:     level,
		useColors: isTerminal(),
		errorLog:  log.New(os.Stderr, "", 0),
		warnLog:   log.New(os.Stdout, "", 0),
		infoLog:   log.New(os.Stdout, "", 0),
		debugLog:  log.New(os.Stdout, "", 0),
	}
}

// SetOutput sets the output for all loggers and disables colors.
func (l *Logger) SetOutput(w io.Writer) {
	l.useColors = false
	l.errorLog.SetOutput(w)
	l.warnLog.SetOutput(w)
	l.infoLog.SetOutput(w)
	l.debugLog.SetOutput(w)
}

// Level returns the configured verbosity.
func (l *Logger) Level() Level {
	return l.level
}

// Colorize applies color formatting if colors are enabled
func (l *Logger) Colorize(color, text string) string {
	if !l.useColors {
		return text
	}
	return color + text + ColorReset
}

// Info logs informational messages (always visible in normal mode)
func (l *Logger) Info(format string, args ...any) {
	if l.level >= LevelInfo {
		l.infoLog.Println(fmt.Sprintf(format, args...))
	}
}

// InfoSuccess logs success with green checkmark
func (l *Logger) InfoSuccess(format string, args ...any) {
	if l.level >= LevelInfo {
		icon := l.Colorize(ColorGreen, "✓")
		l.infoLog.Printf("%s %s", icon, fmt.Sprintf(format, args...))
	}
}

// InfoChange logs a single pending change line.
func (l *Logger) InfoChange(title, detail string) {
	if l.level >= LevelInfo {
		icon := l.Colorize(ColorYellow, "~")
		l.infoLog.Printf("%s %s %s", icon, l.Colorize(ColorCyan, title), detail)
	}
}

// Warn logs warnings (always visible)
func (l *Logger) Warn(format string, args ...any) {
	if l.level >= LevelWarn {
		icon := l.Colorize(ColorYellow, "⚠")
		l.warnLog.Printf("%s %s", icon, fmt.Sprintf(format, args...))
	}
}

// Error logs errors (always visible)
func (l *Logger) Error(format string, args ...any) {
	if l.level >= LevelError {
		icon := l.Colorize(ColorRed, "✗")
		l.errorLog.Printf("%s %s", icon, fmt.Sprintf(format, args...))
	}
}

// Debug logs debug information (verbose mode only)
func (l *Logger) Debug(format string, args ...any) {
	if l.level >= LevelDebug {
		l.debugLog.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
	}
}

// DebugHTTP logs HTTP requests and responses (verbose mode only)
func (l *Logger) DebugHTTP(format string, args ...any) {
	if l.level >= LevelDebug {
		l.debugLog.Printf("[HTTP] %s", fmt.Sprintf(format, args...))
	}
}

// Stage logs a high-level stage (e.g., "Fetching list...")
func (l *Logger) Stage(format string, args ...any) {
	if l.level >= LevelInfo {
		l.infoLog.Println(l.Colorize(ColorBold+ColorCyan, fmt.Sprintf(format, args...)))
	}
}

// Progress logs batch progress (overwrites previous line)
func (l *Logger) Progress(current, total int, status string) {
	if l.level >= LevelInfo {
		msg := fmt.Sprintf("[%d/%d] %s...", current, total, status)
		l.infoLog.Print("\r" + strings.Repeat(" ", 80) + "\r" + msg)
		if current == total {
			l.infoLog.Println()
		}
	}
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying the logger.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or nil.
func FromContext(ctx context.Context) *Logger {
	l, _ := ctx.Value(ctxKey{}).(*Logger)
	return l
}

// Info logs through the context logger if one is attached.
func Info(ctx context.Context, format string, args ...any) {
	if l := FromContext(ctx); l != nil {
		l.Info(format, args...)
	}
}

// Warn logs through the context logger if one is attached.
func Warn(ctx context.Context, format string, args ...any) {
	if l := FromContext(ctx); l != nil {
		l.Warn(format, args...)
	}
}

// Debug logs through the context logger if one is attached.
func Debug(ctx context.Context, format string, args ...any) {
	if l := FromContext(ctx); l != nil {
		l.Debug(format, args...)
	}
}

// DebugHTTP logs through the context logger if one is attached.
func DebugHTTP(ctx context.Context, format string, args ...any) {
	if l := FromContext(ctx); l != nil {
		l.DebugHTTP(format, args...)
	}
}

// isTerminal checks if stdout is a terminal (for color support)
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
