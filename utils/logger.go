package utils

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/avdeevm/blogapi/config"
)

var (
	// Logger is the global structured logger
	Logger *zap.Logger
	// Sugar is a sugared logger for convenience
	Sugar *zap.SugaredLogger
	// Audit receives authentication and CRUD audit events. It shares the
	// console sink with Logger and optionally writes a dedicated audit file.
	Audit *zap.Logger
)

// InitLogger initializes zap loggers with console + rolling file outputs based
// on configuration.
func InitLogger(cfg config.AppConfig) error {
	for _, p := range []string{cfg.LogPath, cfg.AuditLogPath} {
		if p != "" {
			if dir := filepath.Dir(p); dir != "." {
				_ = os.MkdirAll(dir, 0o755)
			}
		}
	}

	level := parseLevel(cfg.LogLevel)

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	enabler := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= level })

	consoleWS := zapcore.AddSync(os.Stdout)
	cores := []zapcore.Core{zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), consoleWS, enabler)}

	if cfg.LogPath != "" {
		fileWS := zapcore.AddSync(rollingWriter(cfg.LogPath, cfg))
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileWS, enabler))
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.LogLevel == "debug" {
		opts = append(opts, zap.Development())
	}
	Logger = zap.New(zapcore.NewTee(cores...), opts...)
	Sugar = Logger.Sugar()

	// Audit events always pass regardless of the app log level.
	auditCores := []zapcore.Core{zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), consoleWS, zapcore.InfoLevel)}
	if cfg.AuditLogPath != "" {
		auditWS := zapcore.AddSync(rollingWriter(cfg.AuditLogPath, cfg))
		auditCores = append(auditCores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), auditWS, zapcore.InfoLevel))
	}
	Audit = zap.New(zapcore.NewTee(auditCores...)).Named("audit")

	return nil
}

func rollingWriter(path string, cfg config.AppConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.LogMaxSizeMB, // megabytes
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays, // days
		Compress:   cfg.LogCompress,
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
