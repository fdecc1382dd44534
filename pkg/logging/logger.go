package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. Use GetLogger rather than reading it
// directly; it is nil until the first Init or GetLogger.
var (
	Logger   *zap.Logger
	loggerMu sync.RWMutex
	logFile  *os.File
)

// LogLevel represents logging verbosity
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Config holds logger configuration
type Config struct {
	Level      LogLevel
	OutputPath string // Empty for stdout, or file path
	Format     string // "json" or "console"
}

// ParseLevel accepts a level name in any case. Unknown names are an error.
func ParseLevel(s string) (LogLevel, error) {
	switch l := LogLevel(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init installs a logger built from config. It fails if a logger is
// already installed; Close it first.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if Logger != nil {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	var sink zapcore.WriteSyncer

	if config.OutputPath == "" {
		sink = zapcore.Lock(os.Stdout)
	} else {
		logDir := filepath.Dir(config.OutputPath)
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			return err
		}

		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		sink = zapcore.Lock(file)
		logFile = file
	}

	Logger = zap.New(zapcore.NewCore(newEncoder(config.Format), sink, config.Level.zapLevel()))
	return nil
}

func newEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "json" {
		return zapcore.NewJSONEncoder(encCfg)
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encCfg)
}

// InitDefault installs an INFO console logger on stdout unless a logger
// is already installed.
func InitDefault() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if Logger == nil {
		Logger = zap.New(zapcore.NewCore(newEncoder("console"), zapcore.Lock(os.Stdout), zapcore.InfoLevel))
	}
}

// InitNop installs a logger that discards everything. Tests use it to keep
// output quiet.
func InitNop() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	Logger = zap.NewNop()
}

// Close syncs the logger and closes the log file, if any. Init may be
// called again afterwards.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if Logger == nil {
		return nil
	}
	_ = Logger.Sync()
	Logger = nil

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// GetLogger returns the installed logger, installing the InitDefault one
// on first use.
func GetLogger() *zap.Logger {
	loggerMu.RLock()
	l := Logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	InitDefault()
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return Logger
}

func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { GetLogger().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { GetLogger().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }
