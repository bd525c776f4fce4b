package proxyserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/acp/pkg/pipeline"
	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/secrets"
	"github.com/stacklok/acp/pkg/tokencache"
)

func newTestServer(t *testing.T, upstream http.RoundTripper) (*Server, *tokencache.Cache) {
	t.Helper()
	dir := t.TempDir()
	store, err := secrets.NewFileStore(dir)
	require.NoError(t, err)
	reg := registry.New(store, dir)
	t.Cleanup(reg.Close)

	tokens := tokencache.New(store, reg)
	p := pipeline.New(store, reg)
	return New(p, tokens, upstream), tokens
}

type stubTransport struct {
	resp *http.Response
}

func (s *stubTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return s.resp, nil
}

func TestServeHTTP_RejectsMissingToken(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeHTTP_RejectsUnknownToken(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/", nil)
	req.Header.Set("Authorization", "Bearer acp_unknown")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeHTTP_ForwardsWithValidToken(t *testing.T) {
	t.Parallel()

	upstreamResp := httptest.NewRecorder()
	upstreamResp.WriteHeader(http.StatusOK)
	upstreamResp.Body.WriteString("ok")

	srv, tokens := newTestServer(t, &stubTransport{resp: upstreamResp.Result()})

	token, err := tokens.Create(context.Background(), "ci-agent")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/v1/items", nil)
	req.Host = "api.example.com"
	req.Header.Set("Authorization", "Bearer "+token.TokenValue)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
