package report

import (
	"fmt"

	"github.com/itchyny/gojq"
)

// Filter keeps rows for which every jq expression yields a truthy value.
type Filter struct {
	exprs []string
	codes []*gojq.Code
}

// NewFilter compiles jq expressions. An empty list yields a nil Filter,
// which matches every row.
func NewFilter(exprs []string) (*Filter, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	f := &Filter{
		exprs: exprs,
		codes: make([]*gojq.Code, len(exprs)),
	}
	for i, expr := range exprs {
		query, err := gojq.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", expr, err)
		}
		f.codes[i], err = gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", expr, err)
		}
	}
	return f, nil
}

// Match evaluates the filter against row. Only the first result of each
// expression counts; no result is a mismatch.
func (f *Filter) Match(row Row) (bool, error) {
	if f == nil {
		return true, nil
	}
	input := row.Map()
	for i, code := range f.codes {
		iter := code.Run(input)
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			return false, fmt.Errorf("jq filter %q: %w", f.exprs[i], err)
		}
		if !isTruthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// isTruthy follows jq: only false and null are falsy.
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}
