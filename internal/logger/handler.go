package logger

import (
	"context"
	"fmt"
	"go/build"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Options struct {
	Level  slog.Level
	Format Format
	// RootPath is stripped from source file paths
	RootPath string
	// RequestIdKey is the context key holding request id string (chi middleware.RequestIDKey)
	RequestIdKey any
}

// SetupSLog installs logger built by New as slog default, writing to stderr
func SetupSLog(o Options) error {
	l, err := New(os.Stderr, o)
	if err != nil {
		return err
	}

	slog.SetDefault(l)
	return nil
}

// New builds logger adding trimmed source location and request id to every record
func New(w io.Writer, o Options) (*slog.Logger, error) {
	ho := slog.HandlerOptions{
		Level: o.Level,
	}

	var h slog.Handler
	switch o.Format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, &ho)
	case FormatText, "":
		h = slog.NewTextHandler(w, &ho)
	default:
		return nil, fmt.Errorf("log format must be json or text, got %q", o.Format)
	}

	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		gopath = build.Default.GOPATH
	}

	rootPath := ""
	if o.RootPath != "" {
		rootPath = strings.TrimSuffix(o.RootPath, "/") + "/"
	}

	return slog.New(&handler{
		baseHandler:  h,
		rootPath:     rootPath,
		goPath:       strings.TrimSuffix(gopath, "/") + "/",
		requestIdKey: o.RequestIdKey,
	}), nil
}

type handler struct {
	baseHandler  slog.Handler
	rootPath     string
	goPath       string
	requestIdKey any
}

func (e *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return e.baseHandler.Enabled(ctx, level)
}

func (e *handler) Handle(ctx context.Context, record slog.Record) error {
	record = record.Clone()

	if record.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		record.AddAttrs(slog.Any(slog.SourceKey, &slog.Source{
			Function: f.Function,
			File:     e.trimPath(f.File),
			Line:     f.Line,
		}))
	}

	if e.requestIdKey != nil && ctx != nil {
		if requestId, ok := ctx.Value(e.requestIdKey).(string); ok && requestId != "" {
			record.AddAttrs(slog.String("request_id", requestId))
		}
	}

	return e.baseHandler.Handle(ctx, record)
}

func (e *handler) trimPath(file string) string {
	if e.rootPath != "" && strings.HasPrefix(file, e.rootPath) {
		return file[len(e.rootPath):]
	} else if strings.HasPrefix(file, e.goPath) {
		return file[len(e.goPath):]
	}

	return file
}

func (e *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *e
	c.baseHandler = e.baseHandler.WithAttrs(attrs)
	return &c
}

func (e *handler) WithGroup(name string) slog.Handler {
	c := *e
	c.baseHandler = e.baseHandler.WithGroup(name)
	return &c
}
