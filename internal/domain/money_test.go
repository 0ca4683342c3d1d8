package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want Money
	}{
		{"19.99", 1999},
		{"20", 2000},
		{"0.5", 50},
		{" 10.00 ", 1000},
		{"-3.25", -325},
		{"1e2", 10000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMoney_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "NaN", "Inf", "1.2.3"} {
		_, err := ParseMoney(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "19.99", Money(1999).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.50", Money(-150).String())
	assert.Equal(t, "0.00", Money(0).String())
}

func TestMoney_UnmarshalJSONNumberAndString(t *testing.T) {
	var v struct {
		A Money  `json:"a"`
		B Money  `json:"b"`
		C *Money `json:"c"`
		D Money  `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a":12.5,"b":"7.99","c":null,"d":null}`), &v)
	require.NoError(t, err)

	assert.Equal(t, Money(1250), v.A)
	assert.Equal(t, Money(799), v.B)
	assert.Nil(t, v.C)
	assert.Equal(t, Money(0), v.D)
}

func TestMoney_UnmarshalJSONRejectsGarbage(t *testing.T) {
	var m Money
	assert.Error(t, json.Unmarshal([]byte(`"cheap"`), &m))
	assert.Error(t, json.Unmarshal([]byte(`true`), &m))
}

func TestMoney_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Money{"total": 4999})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":49.99}`, string(data))
}

func TestMoney_UnmarshalText(t *testing.T) {
	var m Money
	require.NoError(t, m.UnmarshalText([]byte("10.00")))
	assert.Equal(t, Money(1000), m)
	assert.Error(t, m.UnmarshalText([]byte("ten")))
}

func TestMoney_Mul(t *testing.T) {
	assert.Equal(t, Money(5997), Money(1999).Mul(3))
}
