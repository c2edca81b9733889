package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

var logger = log.New()

func init() {
	logger.Out = os.Stderr
	logger.Formatter = &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	logger.SetLevel(log.InfoLevel)
}

// Configure sets format ("json" or "text"), level and output of the shared logger.
// A nil out keeps stderr, unless LOG_TO_FILE=true asks for logs/<date><env>.log.
func Configure(format, level string, out io.Writer) {
	switch format {
	case "text":
		logger.Formatter = &log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		}
	default:
		logger.Formatter = &log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		}
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	if out != nil {
		logger.Out = out
		return
	}
	if os.Getenv("LOG_TO_FILE") == "true" {
		logger.Out = openLogFile()
	}
}

func openLogFile() io.Writer {
	cwd, err := os.Getwd()
	if err != nil {
		return os.Stderr
	}
	logsDir := filepath.Join(cwd, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		logger.Warnf("Failed to create logs directory %s: %v, falling back to stderr", logsDir, err)
		return os.Stderr
	}
	filePath := filepath.Join(logsDir, fmt.Sprintf("%s%s.log", time.Now().Format("2006-01-02"), os.Getenv("ENV")))
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		logger.Warnf("Failed to open log file %s: %v, falling back to stderr", filePath, err)
		return os.Stderr
	}
	return f
}

// GetLogger returns an entry annotated with the calling function, file and line.
func GetLogger() *log.Entry {
	function, file, line, _ := runtime.Caller(1)

	functionObject := runtime.FuncForPC(function)
	name := ""
	if functionObject != nil {
		name = functionObject.Name()
	}
	return logger.WithFields(log.Fields{
		"function": name,
		"file":     file,
		"line":     line,
	})
}
