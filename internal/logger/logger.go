package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"ms-concerts/internal/logscan"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type Options struct {
	// Dir receives one JSON-lines file per day, named log_dd_mm_yyyy.log.
	Dir string
	// Terminal receives the colored output. Defaults to os.Stdout.
	Terminal io.Writer
	Now      func() time.Time
}

// Logger writes colored lines to the terminal and JSON lines to a daily file.
// A nil *Logger discards everything.
type Logger struct {
	mu       sync.Mutex
	dir      string
	terminal io.Writer
	now      func() time.Time
	logFile  *os.File
	fileName string
}

func New(opts Options) (*Logger, error) {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if opts.Terminal == nil {
		opts.Terminal = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	l := &Logger{
		dir:      opts.Dir,
		terminal: opts.Terminal,
		now:      opts.Now,
	}
	if err := l.rotate(l.now()); err != nil {
		return nil, err
	}
	return l, nil
}

func NewLogger(dir string) *Logger {
	l, err := New(Options{Dir: dir})
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}

	l.Info("LOGGER", "Enhanced logging system initialized")
	l.Info("LOGGER", fmt.Sprintf("Log directory: %s", dir))
	return l
}

// Dir is the directory holding the daily log files.
func (l *Logger) Dir() string {
	if l == nil {
		return ""
	}
	return l.dir
}

// rotate switches to the file for the day of now. Callers hold l.mu or own l exclusively.
func (l *Logger) rotate(now time.Time) error {
	name := logscan.FileName(now)
	if l.logFile != nil && name == l.fileName {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(l.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if l.logFile != nil {
		l.logFile.Close()
	}
	l.logFile = f
	l.fileName = name
	return nil
}

func (l *Logger) log(level LogLevel, category, message string) {
	l.write(level, category, escapeMarkers(message))
}

// escapeMarkers keeps the execution markers out of everything but Audit
// lines, so text taken from requests cannot be counted by logscan.
func escapeMarkers(message string) string {
	for _, marker := range []string{logscan.SuccessMarker, logscan.FailureMarker} {
		message = strings.ReplaceAll(message, marker, strconv.QuoteToASCII(marker))
	}
	return message
}

// write emits one entry. It is called through exactly one wrapper method
// plus log or Audit, which the caller depth below accounts for.
func (l *Logger) write(level LogLevel, category, message string) {
	if l == nil {
		return
	}

	_, file, line, ok := runtime.Caller(3)
	if ok {
		file = filepath.Base(file)
	}

	now := l.now()
	entry := LogEntry{
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     l.levelToString(level),
		Category:  strings.ToUpper(category),
		Message:   message,
		File:      file,
		Line:      line,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.terminal, l.formatTerminalOutput(entry))

	if err := l.rotate(now); err != nil {
		fmt.Fprintf(l.terminal, "logger: %v\n", err)
		return
	}
	l.logFile.WriteString(l.formatJSONOutput(entry) + "\n")
}

func (l *Logger) formatTerminalOutput(entry LogEntry) string {
	timestamp := entry.Timestamp[11:19]

	var levelColor, categoryColor *color.Color

	switch entry.Level {
	case "DEBUG":
		levelColor = color.New(color.FgCyan)
		categoryColor = color.New(color.FgCyan, color.Bold)
	case "INFO":
		levelColor = color.New(color.FgGreen)
		categoryColor = color.New(color.FgGreen, color.Bold)
	case "WARN":
		levelColor = color.New(color.FgYellow)
		categoryColor = color.New(color.FgYellow, color.Bold)
	case "ERROR":
		levelColor = color.New(color.FgRed)
		categoryColor = color.New(color.FgRed, color.Bold)
	case "FATAL":
		levelColor = color.New(color.FgRed, color.Bold)
		categoryColor = color.New(color.FgRed, color.Bold)
	default:
		levelColor = color.New(color.FgWhite)
		categoryColor = color.New(color.FgWhite, color.Bold)
	}

	timeStr := color.New(color.FgBlue).Sprintf("%s", timestamp)
	levelStr := levelColor.Sprintf("%-5s", entry.Level)
	categoryStr := categoryColor.Sprintf("[%-10s]", entry.Category)

	if entry.File != "" && entry.Line > 0 {
		fileInfo := color.New(color.FgMagenta).Sprintf(" (%s:%d)", entry.File, entry.Line)
		return fmt.Sprintf("%s %s %s %s%s\n", timeStr, levelStr, categoryStr, entry.Message, fileInfo)
	}

	return fmt.Sprintf("%s %s %s %s\n", timeStr, levelStr, categoryStr, entry.Message)
}

func (l *Logger) formatJSONOutput(entry LogEntry) string {
	jsonBytes, _ := json.Marshal(entry)
	return string(jsonBytes)
}

func (l *Logger) levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "INFO"
	}
}

// Public logging methods
func (l *Logger) Debug(category, message string) {
	l.log(DEBUG, category, message)
}

func (l *Logger) Info(category, message string) {
	l.log(INFO, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.log(WARN, category, message)
}

func (l *Logger) Error(category, message string) {
	l.log(ERROR, category, message)
}

func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	os.Exit(1)
}

// Specialized logging methods for different components
func (l *Logger) LogTicket(action, ticketID, message string) {
	l.Info("TICKET", fmt.Sprintf("[%s] %s - %s", action, ticketID, message))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, strconv.QuoteToASCII(path), status, duration))
}

func (l *Logger) LogKafka(action, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

// Audit records the outcome of an operation with the markers counted by logscan.
// Subject and error are quoted to ASCII so each line carries exactly one marker.
func (l *Logger) Audit(operation, subject string, err error) {
	l.audit(operation, subject, err)
}

func (l *Logger) audit(operation, subject string, err error) {
	target := escapeMarkers(operation) + " " + strconv.QuoteToASCII(subject)
	if err == nil {
		l.write(INFO, "AUDIT", logscan.SuccessMarker+": "+target)
		return
	}
	l.write(WARN, "AUDIT", logscan.FailureMarker+": "+target+": "+strconv.QuoteToASCII(err.Error()))
}

func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile != nil {
		l.logFile.Close()
		l.logFile = nil
	}
}
