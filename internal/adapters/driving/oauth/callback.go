// Package oauth provides the local callback server that receives the
// hh.ru authorization code, plus browser helpers.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// Ensure CallbackServer implements the interface.
var _ driven.AuthCodeSource = (*CallbackServer)(nil)

// DefaultWaitTimeout bounds how long the user has to approve access.
const DefaultWaitTimeout = 5 * time.Minute

// DefaultRedirectURI is used when hh.redirect_uri is not configured.
const DefaultRedirectURI = "http://localhost:18080/callback"

// CallbackServer handles the OAuth redirect from hh.ru.
// It starts a local HTTP server to receive the authorization code.
type CallbackServer struct {
	mu            sync.Mutex
	host          string
	port          string
	path          string
	expectedState string
	timeout       time.Duration
	codeChan      chan string
	errChan       chan error
	server        *http.Server
	listener      net.Listener
}

// NewCallbackServer creates a callback server for the given redirect URI.
// The host, port and path of the URI are where the server listens; port 0
// picks a free port. The expectedState is used to validate the callback.
func NewCallbackServer(redirectURI, expectedState string) (*CallbackServer, error) {
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect uri: %v", domain.ErrInvalidInput, err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("%w: redirect uri must be a local http address, got %q", domain.ErrInvalidInput, redirectURI)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}

	return &CallbackServer{
		host:          u.Hostname(),
		port:          port,
		path:          path,
		expectedState: expectedState,
		timeout:       DefaultWaitTimeout,
		codeChan:      make(chan string, 1),
		errChan:       make(chan error, 1),
	}, nil
}

// SetTimeout changes how long AuthorizationCode waits.
func (s *CallbackServer) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// Start starts the callback server.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Bind loopback when the redirect names localhost.
	host := s.host
	if host == "localhost" {
		host = "127.0.0.1"
	}
	addr := net.JoinHostPort(host, s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	// Store the actual port (important when port was 0)
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = fmt.Sprint(tcpAddr.Port)
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.fail(err)
		}
	}()

	return nil
}

// handleCallback processes the OAuth callback request.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	// Check for error from provider
	if errParam := query.Get("error"); errParam != "" {
		s.fail(fmt.Errorf("oauth error: %s", errParam))
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed: "+errParam, ""))
		return
	}

	if state := query.Get("state"); state != s.expectedState {
		s.fail(errors.New("state mismatch"))
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed: invalid state parameter", ""))
		return
	}

	code := query.Get("code")
	if code == "" {
		s.fail(errors.New("no authorization code received"))
		_, _ = fmt.Fprint(w, resultHTML("Authorization failed: no code received", ""))
		return
	}

	select {
	case s.codeChan <- code:
	default:
	}

	_, _ = fmt.Fprint(w, resultHTML("Authorization successful!", "You can close this window and return to the terminal."))
}

func (s *CallbackServer) fail(err error) {
	select {
	case s.errChan <- err:
	default:
	}
}

// WaitForCode blocks until the authorization code arrives, the timeout
// passes or ctx is done.
func (s *CallbackServer) WaitForCode(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case code := <-s.codeChan:
		return code, nil
	case err := <-s.errChan:
		return "", err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", errors.New("timeout waiting for authorization callback")
		}
		return "", ctx.Err()
	}
}

// AuthorizationCode waits for the callback using the configured timeout.
func (s *CallbackServer) AuthorizationCode(ctx context.Context) (string, error) {
	s.mu.Lock()
	timeout := s.timeout
	s.mu.Unlock()
	return s.WaitForCode(ctx, timeout)
}

// Stop shuts down the callback server.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// RedirectURI returns the redirect URI the server answers on.
// After Start it carries the actual port.
func (s *CallbackServer) RedirectURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&url.URL{Scheme: "http", Host: net.JoinHostPort(s.host, s.port), Path: s.path}).String()
}

func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>hh-autoupdate</title>
    <style>
        body { font-family: sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #FAFAFA; }
        .container { text-align: center; background: white; padding: 48px 64px; border-radius: 16px; border: 1px solid #C7C8CC; }
        h1 { color: #333F50; margin: 0 0 8px 0; font-size: 24px; }
        p { color: #7B8088; margin: 0; font-size: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}

// OpenBrowser opens the default browser to the given URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// GenerateState returns a random value for the OAuth state parameter.
func GenerateState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
