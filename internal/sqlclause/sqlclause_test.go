package sqlclause

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	got, err := Select("DATETIME", "ARG_WORKS", "LOCATION", "CHECK2", "ARG_WORKS")
	require.NoError(t, err)
	assert.Equal(t, "SELECT DATETIME, ARG_WORKS, LOCATION, CHECK2, ARG_WORKS", got)
}

func TestSelect_SeparatorCount(t *testing.T) {
	cases := [][]string{
		{"a"},
		{"a", "b"},
		{"id", "name", "created_at"},
		{"x", "y", "z", "w", "v", "u", "t"},
	}
	for _, cols := range cases {
		got, err := Select(cols...)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, "SELECT "))
		assert.Equal(t, len(cols)-1, strings.Count(got, ", "), got)
	}
}

func TestSelect_NoColumns(t *testing.T) {
	_, err := Select()
	require.ErrorIs(t, err, ErrNoColumns)
	assert.EqualError(t, err, "at least one selection column required")
}

func TestWhere(t *testing.T) {
	got, err := Where("MATER = 'Howdy Pardner'", AndP("fog = 'low'"), OrP("LOCATION = 1"))
	require.NoError(t, err)
	assert.Equal(t, "WHERE MATER = 'Howdy Pardner' AND fog = 'low' OR LOCATION = 1", got)
}

func TestWhere_Cases(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		preds []Predicate
		want  string
	}{
		{name: "base only", base: "a = 1", want: "WHERE a = 1"},
		{name: "empty base", preds: []Predicate{AndP("b = 2")}, want: "WHERE AND b = 2"},
		{name: "nothing", want: "WHERE"},
		{
			name:  "order preserved",
			base:  "a = 1",
			preds: []Predicate{OrP("b = 2"), AndP("c = 3"), OrP("d = 4")},
			want:  "WHERE a = 1 OR b = 2 AND c = 3 OR d = 4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Where(tt.base, tt.preds...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWhere_ConnectorPerPredicate(t *testing.T) {
	preds := []Predicate{AndP("x"), OrP("y"), AndP("z")}
	got, err := Where("base", preds...)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, "WHERE "))

	fields := strings.Fields(got)
	var conns []string
	for _, f := range fields {
		if f == "AND" || f == "OR" {
			conns = append(conns, f)
		}
	}
	assert.Equal(t, []string{"AND", "OR", "AND"}, conns)
}

func TestWhere_UnrecognizedConnector(t *testing.T) {
	_, err := Where("a = 1", Predicate{Connector: "XOR", Clause: "b = 2"})
	require.ErrorIs(t, err, ErrUnrecognizedConnector)
	assert.Contains(t, err.Error(), `"XOR"`)
}

func TestParseConnector(t *testing.T) {
	tests := []struct {
		key  string
		want Connector
	}{
		{"and", And},
		{"AND", And},
		{"w_and", And},
		{"W_AND", And},
		{"or", Or},
		{"w_Or", Or},
	}
	for _, tt := range tests {
		got, err := ParseConnector(tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}

	_, err := ParseConnector("w_not")
	require.ErrorIs(t, err, ErrUnrecognizedConnector)
}

func TestPredicatesFromPairs(t *testing.T) {
	preds, err := PredicatesFromPairs([][2]string{{"w_and", "fog = 'low'"}, {"w_or", "LOCATION = 1"}})
	require.NoError(t, err)
	assert.Equal(t, []Predicate{AndP("fog = 'low'"), OrP("LOCATION = 1")}, preds)

	_, err = PredicatesFromPairs([][2]string{{"and", "a"}, {"nand", "b"}})
	require.ErrorIs(t, err, ErrUnrecognizedConnector)
}

func TestStatementSQL(t *testing.T) {
	q, err := Statement{Columns: []string{"level", "message"}, From: "logs"}.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT level, message FROM logs", q)

	q, err = Statement{
		Columns:    []string{"*"},
		From:       "logs",
		Base:       "level = 'ERROR'",
		Predicates: []Predicate{OrP("level = 'CRITICAL'")},
	}.SQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM logs WHERE level = 'ERROR' OR level = 'CRITICAL'", q)

	_, err = Statement{From: "logs"}.SQL()
	require.ErrorIs(t, err, ErrNoColumns)

	_, err = Statement{Columns: []string{"a"}}.SQL()
	require.ErrorIs(t, err, ErrNoTable)
}
