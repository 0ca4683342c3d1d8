package backend

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"abc"`, "abc"},
		{`12`, "12"},
		{`null`, ""},
		{`{"id":3,"name":"Kid"}`, "Kid"},
	}
	for _, tt := range tests {
		var f flexString
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), tt.in)
		assert.Equal(t, tt.want, string(f), tt.in)
	}

	var f flexString
	assert.Error(t, json.Unmarshal([]byte(`true`), &f))
}

func TestStringList(t *testing.T) {
	assert.Nil(t, stringList(nil, true))
	assert.Nil(t, stringList(json.RawMessage(`null`), true))
	assert.Nil(t, stringList(json.RawMessage(`""`), false))
	assert.Equal(t, []string{"a.jpg"}, stringList(json.RawMessage(`"a.jpg"`), false))
	assert.Equal(t, []string{"S", "M", "L"}, stringList(json.RawMessage(`"S, M,,L"`), true))
	assert.Equal(t, []string{"S", "40"}, stringList(json.RawMessage(`["S", 40, ""]`), true))
	assert.Nil(t, stringList(json.RawMessage(`{"x":1}`), true))
}

func TestResolveURL(t *testing.T) {
	base, err := url.Parse("http://127.0.0.1:8000")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000/media/a.jpg", resolveURL(base, "/media/a.jpg"))
	assert.Equal(t, "http://127.0.0.1:8000/media/a.jpg", resolveURL(base, "media/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/a.jpg", resolveURL(base, "https://cdn.example.com/a.jpg"))
	assert.Equal(t, "//cdn.example.com/a.jpg", resolveURL(base, "//cdn.example.com/a.jpg"))
	assert.Equal(t, "x.jpg", resolveURL(nil, "x.jpg"))
}
