package storage

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel is the severity of a log entry.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

// Logger writes structured entries through zap and fans a plain-text copy
// out to subscribers. A nil *Logger discards everything.
type Logger struct {
	filename    string
	file        *os.File // nil when writing to stdout
	zl          *zap.Logger
	level       zap.AtomicLevel
	mu          sync.Mutex
	subscribers []chan string
}

// NewLogger opens filename for appending. An empty name or "stdout" logs
// to standard output.
func NewLogger(filename string) (*Logger, error) {
	l := &Logger{
		filename: filename,
		level:    zap.NewAtomicLevelAt(zapcore.DebugLevel),
	}
	if err := l.open(filename); err != nil {
		return nil, err
	}
	return l, nil
}

// SetLevel parses "debug", "info", "warn" or "error". Unknown levels are
// rejected and the current level is kept.
func (l *Logger) SetLevel(level string) error {
	if l == nil || level == "" {
		return nil
	}
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.level.SetLevel(zl)
	return nil
}

func (l *Logger) open(filename string) error {
	var ws zapcore.WriteSyncer
	if filename == "" || filename == "stdout" {
		ws = zapcore.AddSync(os.Stdout)
		l.file = nil
	} else {
		file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		ws = zapcore.AddSync(file)
		l.file = file
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		CallerKey:      zapcore.OmitKey,
		StacktraceKey:  zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), ws, l.level)
	l.zl = zap.New(core)
	return nil
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.zl.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Reopen closes the current file and starts writing to filename.
func (l *Logger) Reopen(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.zl.Sync()
		_ = l.file.Close()
	}
	if err := l.open(filename); err != nil {
		return err
	}
	l.filename = filename
	return nil
}

// Log records message at level with optional structured fields.
func (l *Logger) Log(level LogLevel, message string, fields ...zap.Field) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	zlevel := level.zapLevel()
	if !l.level.Enabled(zlevel) {
		return
	}

	if ce := l.zl.Check(zlevel, message); ce != nil {
		ce.Write(fields...)
	}

	entry := fmt.Sprintf("[%s] %s: %s%s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		level.String(),
		message,
		formatFields(fields))

	for _, ch := range l.subscribers {
		select {
		case ch <- entry:
		default: // slow subscriber, drop
		}
	}
}

func formatFields(fields []zap.Field) string {
	if len(fields) == 0 {
		return ""
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, enc.Fields[f.Key])
	}
	return b.String()
}

// CheckRotate rotates the file once it grows past maxSize, an expression
// such as "10 * 1024 * 1024".
func (l *Logger) CheckRotate(maxSize string) error {
	if l == nil || l.file == nil || maxSize == "" {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return err
	}

	if limit := eval(maxSize); limit > 0 && info.Size() > limit {
		return l.rotateLog()
	}
	return nil
}

func (l *Logger) rotateLog() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		_ = l.zl.Sync()
		l.file.Close()
		rotated := fmt.Sprintf("%s.%s", l.filename, time.Now().Format("20060102150405"))
		if err := os.Rename(l.filename, rotated); err != nil {
			return err
		}
	}
	return l.open(l.filename)
}

// Subscribe returns a buffered channel receiving every entry from now on.
func (l *Logger) Subscribe() <-chan string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan string, 100)
	l.subscribers = append(l.subscribers, ch)
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (l *Logger) Unsubscribe(ch <-chan string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, sub := range l.subscribers {
		if sub == ch {
			l.subscribers = append(l.subscribers[:i], l.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARNING:
		return zapcore.WarnLevel
	case ERROR, FATAL:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func eval(expr string) int64 {
	parts := strings.Split(expr, "*")
	var result int64 = 1
	for _, part := range parts {
		num, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		result *= int64(num)
	}
	return result
}

func (l *Logger) Debug(msg string, fields ...zap.Field)   { l.Log(DEBUG, msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)    { l.Log(INFO, msg, fields...) }
func (l *Logger) Warning(msg string, fields ...zap.Field) { l.Log(WARNING, msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field)   { l.Log(ERROR, msg, fields...) }

// Fatal logs at FATAL and exits the process.
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.Log(FATAL, msg, fields...)
	l.Close()
	os.Exit(1)
}
