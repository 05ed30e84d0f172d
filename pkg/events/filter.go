package events

import (
	"fmt"
	"strings"
)

// Filter is a "column=eq.value" predicate. The zero Filter matches every row.
type Filter struct {
	Column string
	Value  string
}

func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Filter{}, nil
	}
	column, rest, ok := strings.Cut(s, "=")
	if !ok || column == "" {
		return Filter{}, fmt.Errorf("invalid filter %q: expected column=eq.value", s)
	}
	value, ok := strings.CutPrefix(rest, "eq.")
	if !ok {
		return Filter{}, fmt.Errorf("invalid filter %q: only eq is supported", s)
	}
	return Filter{Column: column, Value: value}, nil
}

func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Value: fmt.Sprint(value)}
}

func (f Filter) IsZero() bool {
	return f.Column == ""
}

func (f Filter) String() string {
	if f.IsZero() {
		return ""
	}
	return f.Column + "=eq." + f.Value
}

func (f Filter) Matches(row map[string]interface{}) bool {
	if f.IsZero() {
		return true
	}
	v, ok := row[f.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}

// MatchesChange evaluates the filter against the change's current row.
func (f Filter) MatchesChange(c RowChange) bool {
	return f.Matches(c.Row())
}
