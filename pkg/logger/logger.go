package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jademcosta/syncbatcher/pkg/config"
)

const (
	ComponentKey         = "component"
	ManifestStoreTypeKey = "manifest_store_type"
	TriggerTypeKey       = "trigger_type"
	ExternalQueueTypeKey = "ext_queue_type"
	ObjStorageTypeKey    = "obj_storage_type"
	InvocationSourceKey  = "source"
	BatchKindKey         = "batch_kind"
)

func New(conf *config.Config) *slog.Logger {
	return newWithWriter(conf.Log, os.Stderr)
}

// NewDummy returns a logger that discards everything. Meant for tests.
func NewDummy() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWithWriter(logConf config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(logConf.Level),
		AddSource: false,
	}

	var handler slog.Handler
	switch strings.ToLower(logConf.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
