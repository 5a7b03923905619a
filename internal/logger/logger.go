package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ********************************************************
// ********* LOGGING **************************************
// ********************************************************

var showDateTime bool
var defaultLogger *Logger
var logFile *os.File

type LogLevel int

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorOrange  = "\033[38;5;208m"
)

const (
	DEBUG LogLevel = iota
	INFO
	INFORM
	HIGHLIGHT
	WARN
	ERROR
	FATAL
)

type Logger struct {
	infoLogger  *log.Logger
	errorLogger *log.Logger
	level       LogLevel
}

func init() {
	defaultLogger = NewLogger(INFO)
	showDateTime = false
}

func NewLogger(level LogLevel) *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stdout, "", flags()),
		errorLogger: log.New(os.Stderr, "", flags()),
		level:       level,
	}
}

func flags() int {
	if showDateTime {
		return log.Ldate | log.Ltime
	}
	return 0
}

// SetLevel changes the logging threshold of the default logger
func SetLevel(level LogLevel) {
	defaultLogger.level = level
}

func SetShowDateTime(value bool) {
	showDateTime = value
	defaultLogger.infoLogger.SetFlags(flags())
	defaultLogger.errorLogger.SetFlags(flags())
}

// SetLogOutput sets the output destination for logs
// 'c' for console, 'f' for file, 'b' for both
func SetLogOutput(outputType rune, path string) {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	var infoWriter, errorWriter io.Writer

	switch outputType {
	case 'c':
		infoWriter = os.Stdout
		errorWriter = os.Stderr
	case 'f', 'b':
		var err error
		logFile, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		if outputType == 'b' {
			infoWriter = io.MultiWriter(os.Stdout, logFile)
			errorWriter = io.MultiWriter(os.Stderr, logFile)
		} else {
			infoWriter = logFile
			errorWriter = logFile
		}
	default:
		fmt.Fprintf(os.Stderr, "Invalid log output type: %c\n", outputType)
		os.Exit(1)
	}

	defaultLogger.infoLogger = log.New(infoWriter, "", flags())
	defaultLogger.errorLogger = log.New(errorWriter, "", flags())
}

func (l *Logger) log(level LogLevel, format string, v ...any) {
	if level < l.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	}
	// Get just the base filename instead of full path
	file = filepath.Base(file)

	msg := format
	if len(v) > 0 {
		msg = fmt.Sprintf("%s %s", format, formatArgs(v...))
	}

	var colorCode string
	switch level {
	case DEBUG:
		colorCode = colorBlue
	case INFO:
		colorCode = colorGreen
	case INFORM:
		colorCode = colorMagenta
	case HIGHLIGHT:
		colorCode = colorCyan
	case WARN:
		colorCode = colorYellow
	case ERROR:
		colorCode = colorOrange
	case FATAL:
		colorCode = colorRed
	default:
		colorCode = colorReset
	}

	// Metadata in white, message in the level colour
	logMsg := fmt.Sprintf("[%s] %s:%d: %s%s%s",
		level.String(), file, line, colorCode, msg, colorReset)

	if level >= ERROR {
		l.errorLogger.Println(logMsg)
	} else {
		l.infoLogger.Println(logMsg)
	}
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case INFORM:
		return "INFORM"
	case HIGHLIGHT:
		return "HIGHLIGHT"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// formatArgs converts any number of interface{} arguments into a formatted string
func formatArgs(args ...any) string {
	var parts []string
	for _, arg := range args {
		switch v := arg.(type) {
		case float32:
			parts = append(parts, fmt.Sprintf("%.2f", v))
		case float64:
			parts = append(parts, fmt.Sprintf("%.2f", v))
		case int:
			parts = append(parts, fmt.Sprintf("%d", v))
		case bool:
			parts = append(parts, fmt.Sprintf("%v", v))
		case error:
			parts = append(parts, v.Error())
		case nil:
			parts = append(parts, "nil")
		default:
			parts = append(parts, fmt.Sprintf("%v", v))
		}
	}
	return strings.Join(parts, " ")
}

// Convenience methods using the default logger
func Debug(format string, v ...any) {
	defaultLogger.log(DEBUG, format, v...)
}

func Info(format string, v ...any) {
	defaultLogger.log(INFO, format, v...)
}

func Inform(format string, v ...any) {
	defaultLogger.log(INFORM, format, v...)
}

func Highlight(format string, v ...any) {
	defaultLogger.log(HIGHLIGHT, format, v...)
}

func Warn(format string, v ...any) {
	defaultLogger.log(WARN, format, v...)
}

func Error(format string, v ...any) {
	defaultLogger.log(ERROR, format, v...)
}

func Fatal(format string, v ...any) {
	defaultLogger.log(FATAL, format, v...)
	os.Exit(1)
}
