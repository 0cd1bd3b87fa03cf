package coerce

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"12", "12", true},
		{" 12.50 ", "12.5", true},
		{"1,250.75", "1250.75", true},
		{"-3", "-3", true},
		{"+4", "4", true},
		{"7 pcs", "7", true},
		{"12.", "12", true},
		{"1e3", "1000", true},
		{"", "0", false},
		{"abc", "0", false},
		{".", "0", false},
		{"-", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n := Parse(tt.in)
			assert.Equal(t, tt.valid, n.Valid())
			assert.True(t, decimal.RequireFromString(tt.want).Equal(n.Decimal()), "got %s", n.Decimal())
		})
	}
}

func TestNumberUnmarshalAcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 3, "b": "4.25", "c": "n/a", "d": null, "e": {"x": 1}}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, 3, payload.A.Int())
	assert.Equal(t, "4.25", payload.B.Decimal().String())
	assert.False(t, payload.C.Valid())
	assert.True(t, payload.C.Decimal().IsZero())
	assert.False(t, payload.D.Valid())
	assert.False(t, payload.E.Valid())
}

func TestSuppliedAndOr(t *testing.T) {
	existing := decimal.NewFromInt(60)

	assert.Equal(t, "120", Parse("120").Or(existing).String())
	assert.Equal(t, "60", Parse("0").Or(existing).String())
	assert.Equal(t, "60", Parse("").Or(existing).String())
	assert.Equal(t, "60", Number{}.Or(existing).String())
}

func TestIntTruncates(t *testing.T) {
	assert.Equal(t, 3, Parse("3.9").Int())
	assert.Equal(t, -2, Parse("-2.5").Int())
}
