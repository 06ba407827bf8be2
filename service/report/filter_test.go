package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	row := Row{
		Index:  12,
		Kind:   "transfer",
		Amount: "500",
		Memo:   "01AB",
	}

	tests := []struct {
		name        string
		exprs       []string
		expectMatch bool
		expectErr   bool
	}{
		{name: "no filters", exprs: nil, expectMatch: true},
		{name: "kind match", exprs: []string{`.kind == "transfer"`}, expectMatch: true},
		{name: "kind mismatch", exprs: []string{`.kind == "mint"`}, expectMatch: false},
		{name: "numeric index", exprs: []string{`.block_index > 10`}, expectMatch: true},
		{name: "all must match", exprs: []string{`.kind == "transfer"`, `.block_index < 10`}, expectMatch: false},
		{name: "string value is truthy", exprs: []string{`.memo`}, expectMatch: true},
		{name: "null is falsy", exprs: []string{`.missing`}, expectMatch: false},
		{name: "empty result", exprs: []string{`empty`}, expectMatch: false},
		{name: "runtime error", exprs: []string{`.amount + 1`}, expectMatch: false, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.exprs)
			require.NoError(t, err)

			matched, err := f.Match(row)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectMatch, matched)
		})
	}
}

func TestNewFilter_ParseError(t *testing.T) {
	_, err := NewFilter([]string{`.kind ==`})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse jq filter")
}
