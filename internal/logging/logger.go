package logging

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
)

// New создаёт логгер с заданным уровнем и форматом (text, json, logfmt).
func New(w io.Writer, level, format string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if strings.TrimSpace(level) != "" {
		var err error
		if lvl, err = log.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
	}

	formatter := log.TextFormatter
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "share",
	}), nil
}

// Discard возвращает логгер, который ничего не пишет; удобно в тестах.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// FromRequest добавляет к логгеру идентификатор запроса, выданный chi middleware.RequestID.
func FromRequest(l *log.Logger, r *http.Request) *log.Logger {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return l.With("rid", id)
	}
	return l
}

// AccessLog пишет одну строку на каждый обработанный запрос.
func AccessLog(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			FromRequest(l, r).Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"dur", time.Since(start),
			)
		})
	}
}
