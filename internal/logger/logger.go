// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// On a persistent server the API writes lifecycle and error events to one
// JSON log per day under `<root>/logs/YYYY-MM-DD.log`, teeing a console copy
// when attached to a TTY.  Rotation, compression, and retention are handled
// by Lumberjack.
//
// Serverless instances have no writable log directory, so ephemeral mode
// skips the file sink and writes JSON to stdout, where the platform collects
// it.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Root: cfg.Paths.Root, File: true})
//	if err != nil { … }
//	log.Infow("database online", "driver", db.DriverName())
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects sinks and verbosity.
type Options struct {
	Root  string // project root; logs go to <Root>/logs
	File  bool   // write the rotating JSON file
	Tee   bool   // also write a console copy to stdout
	Debug bool   // lower the level to debug
}

var encCfg = zapcore.EncoderConfig{
	TimeKey:      "ts",
	LevelKey:     "level",
	MessageKey:   "msg",
	CallerKey:    "caller",
	EncodeTime:   zapcore.ISO8601TimeEncoder,
	EncodeLevel:  zapcore.LowercaseLevelEncoder,
	EncodeCaller: zapcore.ShortCallerEncoder,
}

// New returns a *zap.SugaredLogger built from opts and installs it as the
// process-wide default via zap.ReplaceGlobals.
func New(opts Options) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}

	var (
		cores   []zapcore.Core
		errSink zapcore.WriteSyncer = zapcore.AddSync(os.Stderr)
	)

	if opts.File {
		logDir := filepath.Join(opts.Root, "logs")
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, err
		}
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(logDir, time.Now().Format("2006-01-02")+".log"),
			MaxSize:    50, // MB
			MaxBackups: 7,
			MaxAge:     14, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileSink, level))
		errSink = fileSink

		if opts.Tee {
			cores = append(cores, zapcore.NewCore(
				zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), level))
		}
	} else {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(os.Stdout), level))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(errSink),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "file", opts.File, "tee", opts.Tee)
	return z, nil
}

// NewWriter builds a JSON logger over w without touching globals.  Tests use
// it to capture output.
func NewWriter(w io.Writer) *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), zap.DebugLevel)
	return zap.New(core).Sugar()
}
