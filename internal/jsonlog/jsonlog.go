package jsonlog

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Level type to represent the severity level for a log entry
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
	LevelFatal
	LevelOff
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// String return human friendly string for the severity level
func (l Level) String() string {
	return levelNames[l]
}

// ParseLevel converts a level name given on the command line ("debug", "info",
// "error", "fatal", "off") into a Level. Unknown names fall back to LevelInfo.
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "":
		return LevelInfo, nil
	case "OFF":
		return LevelOff, nil
	}
	for level, levelName := range levelNames {
		if levelName == name {
			return level, nil
		}
	}
	return LevelInfo, fmt.Errorf("jsonlog: unknown level %q", s)
}

// Logger writes one JSON object per line. Loggers derived with With share the
// destination and its lock with their parent.
type Logger struct {
	out      io.Writer
	minLevel Level
	mu       *sync.Mutex
	exit     func(int)
	// base properties merged into every entry; entry properties win on
	// conflicting keys.
	base map[string]string
}

type entry struct {
	Level      string            `json:"level"`
	Time       string            `json:"time"`
	Message    string            `json:"message"`
	Properties map[string]string `json:"properties,omitempty"`
	Trace      string            `json:"trace,omitempty"`
}

// NewLogger return a new Logger instance which writes log entries at or above
// a minimum severity level to a specific output destination
func NewLogger(out io.Writer, minLevel Level) *Logger {
	return &Logger{
		out:      out,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
		exit:     os.Exit,
	}
}

// With returns a logger that adds properties to every entry it writes.
func (l *Logger) With(properties map[string]string) *Logger {
	child := *l
	child.base = l.merge(properties)
	return &child
}

func (l *Logger) merge(properties map[string]string) map[string]string {
	if len(l.base) == 0 {
		return properties
	}
	merged := make(map[string]string, len(l.base)+len(properties))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range properties {
		merged[k] = v
	}
	return merged
}

func (l *Logger) PrintDebug(message string, properties map[string]string) {
	l.print(LevelDebug, message, properties)
}

func (l *Logger) PrintInfo(message string, properties map[string]string) {
	l.print(LevelInfo, message, properties)
}

// PrintError writes err at LevelError, always with a stack trace.
func (l *Logger) PrintError(err error, properties map[string]string) {
	l.print(LevelError, err.Error(), properties)
}

// PrintFatal writes err at LevelFatal and terminates the process.
func (l *Logger) PrintFatal(err error, properties map[string]string) {
	l.print(LevelFatal, err.Error(), properties)
	l.exit(1)
}

func (l *Logger) print(level Level, message string, properties map[string]string) (int, error) {
	if level < l.minLevel {
		return 0, nil
	}

	e := entry{
		Level:      level.String(),
		Time:       time.Now().UTC().Format(time.RFC3339),
		Message:    message,
		Properties: l.merge(properties),
	}

	if level >= LevelError {
		e.Trace = string(debug.Stack())
	}

	line, err := json.Marshal(e)
	if err != nil {
		line = []byte(LevelError.String() + ": unable to marshal log message: " + err.Error())
	}

	// Entries from concurrent goroutines must not interleave.
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.out.Write(append(line, '\n'))
}

// Write lets the logger satisfy io.Writer so it can back http.Server.ErrorLog.
// Entries written this way are logged at ERROR level.
func (l *Logger) Write(message []byte) (n int, err error) {
	return l.print(LevelError, strings.TrimRight(string(message), "\n"), nil)
}
