// Package httpmsg provides the HTTP/1.1 parse/serialize boundary the
// transform pipeline (C6) sits between. The wire-level parsing itself is an
// external collaborator (net/http's reader), not re-specified here; this
// package only adapts it to the plain Request shape the plugin sandbox
// exchanges with scripts.
package httpmsg

import (
	"bufio"
	"bytes"
	"io"
	"net/http"

	acperrors "github.com/stacklok/acp/pkg/errors"
)

// Request is the pipeline's internal representation of an HTTP/1.1 message:
// method, URL (absolute or origin-form), headers, and a body held fully in
// memory (plugin transforms never see a streaming body).
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Parse decodes request_bytes into a Request. A malformed message is
// reported as an http-parse error.
func Parse(data []byte) (*Request, error) {
	br := bufio.NewReader(bytes.NewReader(data))
	r, err := http.ReadRequest(br)
	if err != nil {
		return nil, acperrors.NewHTTPParseError("failed to parse HTTP request", err)
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, acperrors.NewHTTPParseError("failed to read request body", err)
	}

	url := r.URL.String()
	if url == "" {
		url = r.RequestURI
	}

	header := r.Header.Clone()
	if r.Host != "" {
		header.Set("Host", r.Host)
	}

	return &Request{
		Method: r.Method,
		URL:    url,
		Header: header,
		Body:   body,
	}, nil
}

// Serialize encodes a Request back to HTTP/1.1 wire form.
func Serialize(req *Request) ([]byte, error) {
	httpReq, err := http.NewRequest(req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, acperrors.NewHTTPParseError("failed to construct request for serialization", err)
	}
	httpReq.Header = req.Header
	if httpReq.Host == "" {
		httpReq.Host = req.Header.Get("Host")
	}
	httpReq.ContentLength = int64(len(req.Body))

	var buf bytes.Buffer
	if err := httpReq.Write(&buf); err != nil {
		return nil, acperrors.NewHTTPParseError("failed to serialize request", err)
	}
	return buf.Bytes(), nil
}
