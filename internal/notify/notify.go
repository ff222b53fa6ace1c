// Package notify delivers user-facing outcome messages. Every outcome
// produces exactly one notification; long transfers open a pending
// notification and resolve it in place.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
	Pending
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Pending:
		return "pending"
	default:
		return "info"
	}
}

// Reporter is the notification sink used by every component.
type Reporter interface {
	Report(message string, severity Severity)
	Begin(message string) Notification
}

// Notification is a pending message that is resolved exactly once.
type Notification interface {
	Resolve(message string, severity Severity)
}

// Console writes one line per message.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Report(message string, severity Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[%s] %s\n", severity, message)
}

func (c *Console) Begin(message string) Notification {
	c.Report(message, Pending)
	return &consoleNotification{c: c}
}

type consoleNotification struct {
	c    *Console
	once sync.Once
}

func (n *consoleNotification) Resolve(message string, severity Severity) {
	n.once.Do(func() { n.c.Report(message, severity) })
}

// Log forwards notifications to a slog logger.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Report(message string, severity Severity) {
	switch severity {
	case Error:
		l.logger.Error("notification", "message", message, "severity", severity.String())
	case Warning:
		l.logger.Warn("notification", "message", message, "severity", severity.String())
	default:
		l.logger.Info("notification", "message", message, "severity", severity.String())
	}
}

func (l *Log) Begin(message string) Notification {
	l.logger.Debug("notification pending", "message", message)
	return &logNotification{l: l}
}

type logNotification struct {
	l    *Log
	once sync.Once
}

func (n *logNotification) Resolve(message string, severity Severity) {
	n.once.Do(func() { n.l.Report(message, severity) })
}

// Entry is one notification as held by Memory.
type Entry struct {
	ID        int       `json:"id"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Memory keeps the most recent notifications. Pending entries are updated
// in place when resolved.
type Memory struct {
	mu      sync.Mutex
	limit   int
	nextID  int
	entries []Entry
}

func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = 100
	}
	return &Memory{limit: limit}
}

func (m *Memory) Report(message string, severity Severity) {
	m.add(message, severity)
}

func (m *Memory) Begin(message string) Notification {
	id := m.add(message, Pending)
	return &memoryNotification{m: m, id: id}
}

func (m *Memory) add(message string, severity Severity) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.entries = append(m.entries, Entry{
		ID:        m.nextID,
		Message:   message,
		Severity:  severity.String(),
		UpdatedAt: time.Now(),
	})
	if len(m.entries) > m.limit {
		m.entries = m.entries[len(m.entries)-m.limit:]
	}
	return m.nextID
}

func (m *Memory) update(id int, message string, severity Severity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries[i].Message = message
			m.entries[i].Severity = severity.String()
			m.entries[i].UpdatedAt = time.Now()
			return
		}
	}
	// Evicted while pending; keep the outcome anyway.
	m.entries = append(m.entries, Entry{ID: id, Message: message, Severity: severity.String(), UpdatedAt: time.Now()})
	if len(m.entries) > m.limit {
		m.entries = m.entries[len(m.entries)-m.limit:]
	}
}

// Entries returns a copy of the retained notifications, oldest first.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Messages returns retained messages with the given severity.
func (m *Memory) Messages(severity Severity) []string {
	var out []string
	for _, e := range m.Entries() {
		if e.Severity == severity.String() {
			out = append(out, e.Message)
		}
	}
	return out
}

type memoryNotification struct {
	m    *Memory
	id   int
	once sync.Once
}

func (n *memoryNotification) Resolve(message string, severity Severity) {
	n.once.Do(func() { n.m.update(n.id, message, severity) })
}

// Multi fans every notification out to several reporters.
type Multi []Reporter

func (m Multi) Report(message string, severity Severity) {
	for _, r := range m {
		r.Report(message, severity)
	}
}

func (m Multi) Begin(message string) Notification {
	ns := make(multiNotification, len(m))
	for i, r := range m {
		ns[i] = r.Begin(message)
	}
	return ns
}

type multiNotification []Notification

func (ns multiNotification) Resolve(message string, severity Severity) {
	for _, n := range ns {
		n.Resolve(message, severity)
	}
}
