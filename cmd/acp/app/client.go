package app

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// apiClient is a thin HTTP client for the management API (pkg/api). It
// hashes the operator's password client-side (sha512 hex), matching what
// the server's password verification expects to receive rather than a
// plaintext password.
type apiClient struct {
	baseURL    string
	password   string
	httpClient *http.Client
}

func newAPIClient(baseURL, password string) *apiClient {
	return &apiClient{baseURL: baseURL, password: password, httpClient: http.DefaultClient}
}

func (c *apiClient) passwordHash() string {
	sum := sha512.Sum512([]byte(c.password))
	return hex.EncodeToString(sum[:])
}

// do issues method/path with body merged with the password hash envelope
// every authenticated endpoint expects, and decodes the JSON response into
// out (if non-nil).
func (c *apiClient) do(ctx context.Context, method, path string, body map[string]interface{}, out interface{}) error {
	if body == nil {
		body = map[string]interface{}{}
	}
	if method != http.MethodGet || path != "/status" {
		body["password_hash"] = c.passwordHash()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(resp.Body)
		text := strings.TrimSpace(string(msg))
		if text == "" {
			text = resp.Status
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, text)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
