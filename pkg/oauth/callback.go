package oauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// CallbackTimeout is how long the flow waits for the identity provider to
// redirect back before giving up and tearing down the listener.
const CallbackTimeout = 5 * time.Minute

// CallbackResult holds the query parameters delivered by the provider
// redirect.
type CallbackResult struct {
	// Code is the authorization code on success.
	Code string

	// State echoes the state parameter from the authorize request.
	State string

	// Error is the provider's error code if authorization was denied.
	Error string

	// ErrorDescription provides more detail about the error.
	ErrorDescription string
}

// CallbackServer is a short-lived loopback HTTP server that captures a
// single OAuth redirect. Only the first callback is accepted; the server is
// shut down after it regardless of outcome.
type CallbackServer struct {
	listener net.Listener
	server   *http.Server
	result   chan CallbackResult
	port     int
}

// NewCallbackServer binds the loopback listener on the given port. Port 0
// picks a random free port (used by tests). A bind failure is fatal for the
// authentication attempt; it is not retried.
func NewCallbackServer(port int) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("binding callback listener on port %d: %w", port, err)
	}

	cs := &CallbackServer{
		listener: listener,
		result:   make(chan CallbackResult, 1),
		port:     listener.Addr().(*net.TCPAddr).Port,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", cs.handleCallback)
	cs.server = &http.Server{Handler: mux}

	go func() { _ = cs.server.Serve(cs.listener) }()

	return cs, nil
}

// Port returns the bound port.
func (s *CallbackServer) Port() int {
	return s.port
}

// Wait blocks until the redirect arrives or the context expires. The caller
// is expected to pass a context bounded by CallbackTimeout.
func (s *CallbackServer) Wait(ctx context.Context) (*CallbackResult, error) {
	select {
	case result := <-s.result:
		return &result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for authorization callback: %w", ctx.Err())
	}
}

// Close shuts down the listener. Safe to call more than once.
func (s *CallbackServer) Close() error {
	return s.server.Shutdown(context.Background())
}

// handleCallback records the first redirect and renders a closing page for
// the browser tab. Later requests find the result channel full and only get
// the page.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result := CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	select {
	case s.result <- result:
	default:
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if result.Error != "" || result.Code == "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, failurePage, result.Error, result.ErrorDescription)
		return
	}

	fmt.Fprint(w, successPage)
}

const successPage = `<!DOCTYPE html>
<html>
<head><title>Authorization Complete</title></head>
<body style="font-family: sans-serif; padding: 40px; text-align: center;">
<h1>Authorization Complete</h1>
<p>You can close this window and return to your assistant.</p>
</body>
</html>`

const failurePage = `<!DOCTYPE html>
<html>
<head><title>Authorization Failed</title></head>
<body style="font-family: sans-serif; padding: 40px; text-align: center;">
<h1>Authorization Failed</h1>
<p>Error: %s</p>
<p>%s</p>
<p>You can close this window.</p>
</body>
</html>`
