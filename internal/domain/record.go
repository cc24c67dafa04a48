package domain

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// TimeLayout is the wall-clock layout used by the human readable formats.
const TimeLayout = "2006-01-02 15:04:05"

// Attr is a flattened structured attribute. Keys of nested groups are joined
// with a dot.
type Attr struct {
	Key   string
	Value slog.Value
}

// Record is a single log event as delivered to every sink.
type Record struct {
	EventID     string
	Time        time.Time
	Severity    Severity
	Message     string
	LoggerName  string
	ProcessName string
	ProcessID   int
	Attrs       []Attr
}

// AttrMap returns the attributes keyed by name. Later duplicates win.
func (r Record) AttrMap() map[string]any {
	if len(r.Attrs) == 0 {
		return nil
	}
	m := make(map[string]any, len(r.Attrs))
	for _, a := range r.Attrs {
		m[a.Key] = a.Value.Any()
	}
	return m
}

// MarshalJSON encodes the record as a single flat object. Keys come out
// sorted because the object is built from a map.
func (r Record) MarshalJSON() ([]byte, error) {
	obj := map[string]any{
		"eventID":     r.EventID,
		"level":       r.Severity.String(),
		"loggerName":  r.LoggerName,
		"message":     r.Message,
		"processID":   r.ProcessID,
		"processName": r.ProcessName,
		"timestamp":   r.Time.Format(time.RFC3339Nano),
	}
	if attrs := r.AttrMap(); attrs != nil {
		obj["attrs"] = attrs
	}
	return json.Marshal(obj)
}

// PlainText renders the record the way the plain-text file sink and the
// email body show it: "<time> - <logger> - <LEVEL> - <message> k=v ...".
func (r Record) PlainText() string {
	var b strings.Builder
	b.WriteString(r.Time.Format(TimeLayout))
	b.WriteString(" - ")
	b.WriteString(r.LoggerName)
	b.WriteString(" - ")
	b.WriteString(r.Severity.String())
	b.WriteString(" - ")
	b.WriteString(r.Message)
	b.WriteString(r.AttrText())
	return b.String()
}

// AttrText renders the attributes as " k=v" pairs in insertion order.
func (r Record) AttrText() string {
	if len(r.Attrs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, a := range r.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		v := a.Value.String()
		if strings.ContainsAny(v, " \t\"=") {
			v = quote(v)
		}
		b.WriteString(v)
	}
	return b.String()
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
