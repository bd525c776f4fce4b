package api

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/acp/pkg/registry"
	"github.com/stacklok/acp/pkg/secrets"
	"github.com/stacklok/acp/pkg/tokencache"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	dir := t.TempDir()
	store, err := secrets.NewFileStore(dir)
	require.NoError(t, err)
	reg := registry.New(store, dir)
	t.Cleanup(reg.Close)
	return Deps{Store: store, Registry: reg, Tokens: tokencache.New(store, reg)}
}

func passwordHash(password string) string {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:])
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleStatus_UninitializedThenInitialized(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	r := Router(deps)

	rec := doRequest(t, r, http.MethodGet, "/status", map[string]string{})
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status["initialized"])

	rec = doRequest(t, r, http.MethodPost, "/init", initRequest{PasswordHash: passwordHash("hunter2")})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/status", map[string]string{})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status["initialized"])
}

func TestHandleInit_RefusesReinit(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	r := Router(deps)

	req := initRequest{PasswordHash: passwordHash("hunter2")}
	rec := doRequest(t, r, http.MethodPost, "/init", req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/init", req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTokensCreate_RequiresValidPassword(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	r := Router(deps)

	doRequest(t, r, http.MethodPost, "/init", initRequest{PasswordHash: passwordHash("hunter2")})

	rec := doRequest(t, r, http.MethodPost, "/tokens/create", tokenCreateRequest{
		authEnvelope: authEnvelope{PasswordHash: passwordHash("wrong")},
		Name:         "ci-agent",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, r, http.MethodPost, "/tokens/create", tokenCreateRequest{
		authEnvelope: authEnvelope{PasswordHash: passwordHash("hunter2")},
		Name:         "ci-agent",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "ci-agent", created["Name"])
}

func TestPluginsInstallListDelete(t *testing.T) {
	t.Parallel()
	deps := newTestDeps(t)
	r := Router(deps)

	doRequest(t, r, http.MethodPost, "/init", initRequest{PasswordHash: passwordHash("hunter2")})

	code := `
var name = "exa";
var matchPatterns = ["api.exa.ai"];
var credentialSchema = ["api_key"];
function transform(request, credentials) { return request; }
`
	rec := doRequest(t, r, http.MethodPost, "/plugins/exa", pluginInstallRequest{
		authEnvelope: authEnvelope{PasswordHash: passwordHash("hunter2")},
		Code:         code,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/plugins", authEnvelope{PasswordHash: passwordHash("hunter2")})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "api.exa.ai")

	rec = doRequest(t, r, http.MethodDelete, "/plugins/exa", authEnvelope{PasswordHash: passwordHash("hunter2")})
	require.Equal(t, http.StatusOK, rec.Code)
}
