// Package sqlclause concatenates trusted SQL fragments into SELECT and WHERE
// clauses. Nothing is parsed, quoted or validated: the inputs are literals
// owned by the caller.
package sqlclause

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoColumns is returned by Select when called without columns.
	ErrNoColumns = errors.New("at least one selection column required")

	// ErrUnrecognizedConnector is returned for a predicate connector that is
	// neither AND nor OR.
	ErrUnrecognizedConnector = errors.New("unrecognized connector")

	// ErrNoTable is returned by Statement.SQL when From is empty.
	ErrNoTable = errors.New("statement has no FROM table")
)

// Connector joins an additional predicate onto a WHERE clause.
type Connector string

const (
	And Connector = "AND"
	Or  Connector = "OR"
)

// Predicate is one connector-prefixed condition.
type Predicate struct {
	Connector Connector
	Clause    string
}

// AndP returns an AND predicate.
func AndP(clause string) Predicate { return Predicate{Connector: And, Clause: clause} }

// OrP returns an OR predicate.
func OrP(clause string) Predicate { return Predicate{Connector: Or, Clause: clause} }

// ParseConnector maps a connector key to a Connector. Keys are matched
// case-insensitively; "and"/"or" and the "w_and"/"w_or" spellings are accepted.
func ParseConnector(key string) (Connector, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "and", "w_and":
		return And, nil
	case "or", "w_or":
		return Or, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedConnector, key)
	}
}

// PredicatesFromPairs converts ordered key/clause pairs into predicates,
// keeping their order.
func PredicatesFromPairs(pairs [][2]string) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(pairs))
	for _, p := range pairs {
		conn, err := ParseConnector(p[0])
		if err != nil {
			return nil, err
		}
		preds = append(preds, Predicate{Connector: conn, Clause: p[1]})
	}
	return preds, nil
}

// Select returns "SELECT c1, c2, ..., cN".
func Select(columns ...string) (string, error) {
	if len(columns) == 0 {
		return "", ErrNoColumns
	}
	return "SELECT " + strings.Join(columns, ", "), nil
}

// Where returns "WHERE <base> <CONN> <clause> ..." with the predicates in
// the order given. An empty base is left out.
func Where(base string, preds ...Predicate) (string, error) {
	parts := make([]string, 0, 2+2*len(preds))
	parts = append(parts, "WHERE")
	if base != "" {
		parts = append(parts, base)
	}
	for _, p := range preds {
		if p.Connector != And && p.Connector != Or {
			return "", fmt.Errorf("%w: %q", ErrUnrecognizedConnector, string(p.Connector))
		}
		parts = append(parts, string(p.Connector), p.Clause)
	}
	return strings.Join(parts, " "), nil
}

// Statement assembles a SELECT ... FROM ... [WHERE ...] query.
type Statement struct {
	Columns    []string
	From       string
	Base       string
	Predicates []Predicate
}

// SQL renders the statement. The WHERE clause is omitted when there is
// neither a base condition nor predicates.
func (s Statement) SQL() (string, error) {
	sel, err := Select(s.Columns...)
	if err != nil {
		return "", err
	}
	if s.From == "" {
		return "", ErrNoTable
	}
	q := sel + " FROM " + s.From
	if s.Base == "" && len(s.Predicates) == 0 {
		return q, nil
	}
	where, err := Where(s.Base, s.Predicates...)
	if err != nil {
		return "", err
	}
	return q + " " + where, nil
}
