// Package logging provides the leveled, structured logger used by every
// subsystem in the fabric: adapters, translators, and the orchestrator.
// Log lines are framed as RFC 5424 syslog messages so they can be shipped
// to any syslog collector without a reformatting step.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

type Level int

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
	FATAL
)

func (l Level) String() string {
	switch l {
	case OFF:
		return `OFF`
	case DEBUG:
		return `DEBUG`
	case INFO:
		return `INFO`
	case WARN:
		return `WARN`
	case ERROR:
		return `ERROR`
	case CRITICAL:
		return `CRITICAL`
	case FATAL:
		return `FATAL`
	}
	return `UNKNOWN`
}

func (l Level) priority() rfc5424.Priority {
	switch l {
	case DEBUG:
		return rfc5424.Debug
	case INFO:
		return rfc5424.Info
	case WARN:
		return rfc5424.Warning
	case ERROR:
		return rfc5424.Error
	case CRITICAL:
		return rfc5424.Crit
	case FATAL:
		return rfc5424.Emergency
	}
	return rfc5424.Info
}

// LevelFromString parses a config value such as "WARN" into a Level.
func LevelFromString(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case `OFF`:
		return OFF, nil
	case `DEBUG`:
		return DEBUG, nil
	case `INFO`, ``:
		return INFO, nil
	case `WARN`, `WARNING`:
		return WARN, nil
	case `ERROR`:
		return ERROR, nil
	case `CRITICAL`:
		return CRITICAL, nil
	case `FATAL`:
		return FATAL, nil
	}
	return OFF, ErrInvalidLevel
}

var (
	ErrNotOpen      = errors.New("logger is not open")
	ErrInvalidLevel = errors.New("invalid log level")
)

const (
	defaultDepth = 3
	defaultID    = `plagn@1`
	maxAppname   = 48
	maxHostname  = 255
)

// Logger is a leveled, key-value structured writer of RFC5424 lines.
// Adapters and Translators hold a *Logger rather than writing to stdout
// directly, so the Orchestrator can redirect, filter, or duplicate all
// log traffic in one place.
type Logger struct {
	hostname string
	appname  string

	mtx  sync.Mutex
	wtrs []io.Writer
	lvl  Level
	hot  bool
}

// New creates a logger writing to wtr at level INFO.
func New(wtr io.Writer) *Logger {
	l := &Logger{
		wtrs: []io.Writer{wtr},
		lvl:  INFO,
		hot:  true,
	}
	l.guessHostnameAppname()
	return l
}

// NewDiscard creates a logger that drops everything; useful in tests.
func NewDiscard() *Logger {
	return New(io.Discard)
}

func (l *Logger) guessHostnameAppname() {
	if h, err := os.Hostname(); err == nil {
		l.hostname = trimLength(maxHostname, h)
	}
	if args := os.Args; len(args) > 0 {
		exe := filepath.Base(args[0])
		if ext := filepath.Ext(exe); len(ext) > 0 && len(ext) < len(exe) {
			exe = strings.TrimSuffix(exe, ext)
		}
		l.appname = trimLength(maxAppname, exe)
	}
}

func (l *Logger) SetLevel(lvl Level) { l.mtx.Lock(); l.lvl = lvl; l.mtx.Unlock() }
func (l *Logger) GetLevel() Level    { l.mtx.Lock(); defer l.mtx.Unlock(); return l.lvl }

// AddWriter fans this logger's output out to an additional writer.
func (l *Logger) AddWriter(wtr io.Writer) {
	l.mtx.Lock()
	l.wtrs = append(l.wtrs, wtr)
	l.mtx.Unlock()
}

// KV builds a structured-data parameter for a log line.
func KV(name string, value interface{}) rfc5424.SDParam {
	switch v := value.(type) {
	case string:
		return rfc5424.SDParam{Name: name, Value: v}
	default:
		return rfc5424.SDParam{Name: name, Value: fmt.Sprintf("%v", value)}
	}
}

// KVErr is shorthand for KV("error", err).
func KVErr(err error) rfc5424.SDParam {
	return KV("error", err)
}

func (l *Logger) Debug(msg string, sds ...rfc5424.SDParam) { l.output(defaultDepth, DEBUG, msg, sds...) }
func (l *Logger) Info(msg string, sds ...rfc5424.SDParam)  { l.output(defaultDepth, INFO, msg, sds...) }
func (l *Logger) Warn(msg string, sds ...rfc5424.SDParam)  { l.output(defaultDepth, WARN, msg, sds...) }
func (l *Logger) Error(msg string, sds ...rfc5424.SDParam) { l.output(defaultDepth, ERROR, msg, sds...) }
func (l *Logger) Critical(msg string, sds ...rfc5424.SDParam) {
	l.output(defaultDepth, CRITICAL, msg, sds...)
}

// Fatal logs at FATAL and terminates the process. Only the Orchestrator's
// startup path should call this; a running Adapter worker must never
// bring the whole process down over its own failure (§7).
func (l *Logger) Fatal(msg string, sds ...rfc5424.SDParam) {
	l.output(defaultDepth, FATAL, msg, sds...)
	os.Exit(-1)
}

func (l *Logger) output(depth int, lvl Level, msg string, sds ...rfc5424.SDParam) {
	l.mtx.Lock()
	skip := l.lvl == OFF || lvl < l.lvl || !l.hot
	wtrs := l.wtrs
	hostname, appname := l.hostname, l.appname
	l.mtx.Unlock()
	if skip {
		return
	}
	ts := time.Now()
	b, err := genMessage(ts, lvl.priority(), hostname, appname, callLoc(depth), msg, sds...)
	if err != nil || len(b) == 0 {
		return
	}
	line := strings.TrimRight(string(b), "\n\t\r") + "\n"
	for _, w := range wtrs {
		io.WriteString(w, line)
	}
}

func genMessage(ts time.Time, prio rfc5424.Priority, hostname, appname, msgid, msg string, sds ...rfc5424.SDParam) ([]byte, error) {
	m := rfc5424.Message{
		Priority:  prio,
		Timestamp: ts,
		Hostname:  trimLength(maxHostname, hostname),
		AppName:   trimLength(maxAppname, appname),
		MessageID: trimLength(32, msgid),
		Message:   []byte(msg),
	}
	if len(sds) > 0 {
		m.StructuredData = []rfc5424.StructuredData{{ID: defaultID, Parameters: sds}}
	}
	return m.MarshalBinary()
}

func callLoc(depth int) string {
	_, file, line, ok := runtime.Caller(depth)
	if !ok {
		return `?`
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func trimLength(n int, s string) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
