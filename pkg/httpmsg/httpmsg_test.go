package httpmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	raw := "GET /v1/items HTTP/1.1\r\nHost: api.example.com\r\nAccept: application/json\r\n\r\n"
	req, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/v1/items", req.URL)
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
}

func TestParse_MalformedRequest(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("not an http request"))
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	raw := "POST /v1/items HTTP/1.1\r\nHost: api.example.com\r\nContent-Type: application/json\r\nContent-Length: 13\r\n\r\n{\"id\": \"123\"}"
	req, err := Parse([]byte(raw))
	require.NoError(t, err)

	serialized, err := Serialize(req)
	require.NoError(t, err)

	reparsed, err := Parse(serialized)
	require.NoError(t, err)

	assert.Equal(t, req.Method, reparsed.Method)
	assert.Equal(t, req.URL, reparsed.URL)
	assert.Equal(t, req.Body, reparsed.Body)
	assert.Equal(t, req.Header.Get("Content-Type"), reparsed.Header.Get("Content-Type"))
}

func TestSerialize_HeaderAppendedByPluginIsPresent(t *testing.T) {
	t.Parallel()

	req := &Request{
		Method: "GET",
		URL:    "http://api.example.com/v1/items",
		Header: map[string][]string{"Accept": {"application/json"}},
		Body:   nil,
	}
	req.Header.Set("Authorization", "Bearer X")

	data, err := Serialize(req)
	require.NoError(t, err)

	reparsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "Bearer X", reparsed.Header.Get("Authorization"))
}
