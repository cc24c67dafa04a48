package pii

import (
	"log/slog"
	"strings"

	"github.com/V4T54L/grabbag/internal/domain"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactor masks sensitive attribute values before a record reaches any sink.
type Redactor struct {
	fieldsToRedact map[string]struct{} // lower-cased
}

// NewRedactor creates a Redactor for the given attribute names. Matching is
// case-insensitive and applies to the last segment of a grouped key, so
// "password" also covers "user.password".
func NewRedactor(fields []string) *Redactor {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToLower(strings.TrimSpace(field))
		if field != "" {
			fieldSet[field] = struct{}{}
		}
	}
	return &Redactor{fieldsToRedact: fieldSet}
}

// Redact modifies rec in place and reports whether anything was masked.
// The attribute slice is copied first so shared handler attributes are not
// mutated.
func (r *Redactor) Redact(rec *domain.Record) bool {
	if r == nil || len(r.fieldsToRedact) == 0 || len(rec.Attrs) == 0 {
		return false
	}

	var attrs []domain.Attr
	for i, a := range rec.Attrs {
		if !r.matches(a.Key) {
			continue
		}
		if attrs == nil {
			attrs = append([]domain.Attr(nil), rec.Attrs...)
		}
		attrs[i].Value = slog.StringValue(RedactedPlaceholder)
	}
	if attrs == nil {
		return false
	}
	rec.Attrs = attrs
	return true
}

func (r *Redactor) matches(key string) bool {
	key = strings.ToLower(key)
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	_, ok := r.fieldsToRedact[key]
	return ok
}
