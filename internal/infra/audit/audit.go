// Package audit writes one JSON line per admitted or rejected API call.
package audit

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Entry is a single audit record.
type Entry struct {
	RequestID  string
	Route      string
	Bucket     string
	Requester  string
	StatusCode int
	LatencyMS  float64
	Success    bool
	Error      string
}

// Logger appends entries to a JSONL sink. A disabled Logger drops entries.
type Logger struct {
	enabled bool
	path    string
	log     *zap.Logger
	closer  io.Closer
}

// Disabled returns a logger that records nothing.
func Disabled() *Logger {
	return &Logger{log: zap.NewNop()}
}

// Open creates the parent directory and appends to path.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	l := NewWithWriter(f)
	l.path = path
	l.closer = f
	return l, nil
}

// NewWithWriter creates an enabled logger writing to w.
func NewWithWriter(w io.Writer) *Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), zapcore.InfoLevel)
	return &Logger{enabled: true, log: zap.New(core)}
}

// Enabled reports whether entries are written.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Path returns the file path, empty for writer-backed loggers.
func (l *Logger) Path() string {
	return l.path
}

// Record writes an entry.
func (l *Logger) Record(e Entry) {
	if !l.enabled {
		return
	}
	fields := []zap.Field{
		zap.String("request_id", e.RequestID),
		zap.String("route", e.Route),
		zap.String("bucket", e.Bucket),
		zap.Int("status_code", e.StatusCode),
		zap.Float64("latency_ms", math.Round(e.LatencyMS*100)/100),
		zap.Bool("success", e.Success),
	}
	if e.Requester != "" {
		fields = append(fields, zap.String("requester", e.Requester))
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error", e.Error))
	}
	l.log.Info("", fields...)
}

// Close flushes and closes the sink.
func (l *Logger) Close() error {
	_ = l.log.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
