// Package proxyserver hosts the data-plane HTTP listener: the forward
// proxy agents point their HTTP client at. TLS interception and CA minting
// are out of scope here (external collaborators per the system overview);
// this listener handles already-decrypted HTTP requests, runs them through
// the transform pipeline (C6), and forwards the result upstream.
package proxyserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/stacklok/acp/pkg/auth"
	acperrors "github.com/stacklok/acp/pkg/errors"
	"github.com/stacklok/acp/pkg/httpmsg"
	"github.com/stacklok/acp/pkg/logger"
	"github.com/stacklok/acp/pkg/pipeline"
	"github.com/stacklok/acp/pkg/tokencache"
)

const readHeaderTimeout = 10 * time.Second

// Server is the forward-proxy HTTP handler agents authenticate against.
type Server struct {
	pipeline  *pipeline.Pipeline
	tokens    *tokencache.Cache
	transport http.RoundTripper
}

// New returns a Server backed by p for transforms and tokens for bearer
// authentication. transport is optional; nil selects http.DefaultTransport.
func New(p *pipeline.Pipeline, tokens *tokencache.Cache, transport http.RoundTripper) *Server {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Server{pipeline: p, tokens: tokens, transport: transport}
}

// Serve starts the proxy listener on address and blocks until ctx is
// canceled, at which point it shuts down gracefully.
func Serve(ctx context.Context, address string, s *Server) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              address,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Infof("starting proxy server on %s", srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Panicf("proxy server stopped with error: %v", err)
		}
	}()

	<-ctx.Done()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("proxy server shutdown failed: %w", err)
	}

	logger.Infof("proxy server stopped")
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ExtractBearerToken(r)
	if err != nil {
		http.Error(w, "missing or malformed Authorization header", http.StatusUnauthorized)
		return
	}
	if _, ok, err := s.tokens.GetByToken(r.Context(), token); err != nil {
		http.Error(w, "failed to verify token", http.StatusInternalServerError)
		return
	} else if !ok {
		http.Error(w, "unknown bearer token", http.StatusUnauthorized)
		return
	}
	r.Header.Del("Authorization")

	host := r.Host
	if host == "" {
		host = r.URL.Hostname()
	}

	raw, err := httputil.DumpRequest(r, true)
	if err != nil {
		http.Error(w, "failed to read request", http.StatusBadRequest)
		return
	}

	result, err := s.pipeline.Process(r.Context(), host, raw)
	if err != nil {
		logger.Errorf("pipeline failed for host %q: %v", host, err)
		http.Error(w, http.StatusText(acperrors.Code(err)), acperrors.Code(err))
		return
	}

	transformed, err := httpmsg.Parse(result.Bytes)
	if err != nil {
		http.Error(w, "failed to parse transformed request", http.StatusInternalServerError)
		return
	}

	s.forward(w, r.Context(), transformed)
}

// absoluteURL reconstructs a dialable URL for an origin-form request, which
// is what the dump/parse round trip produces: http.ReadRequest resolves the
// request line against the Host header, not a scheme+host URL.
func absoluteURL(req *httpmsg.Request) string {
	if strings.HasPrefix(req.URL, "http://") || strings.HasPrefix(req.URL, "https://") {
		return req.URL
	}
	return "http://" + req.Header.Get("Host") + req.URL
}

func (s *Server) forward(w http.ResponseWriter, ctx context.Context, req *httpmsg.Request) {
	outbound, err := http.NewRequestWithContext(ctx, req.Method, absoluteURL(req), bytes.NewReader(req.Body))
	if err != nil {
		http.Error(w, "failed to build outbound request", http.StatusBadGateway)
		return
	}
	outbound.Header = req.Header

	resp, err := s.transport.RoundTrip(outbound)
	if err != nil {
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
