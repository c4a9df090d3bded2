package lastfm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"
)

const (
	// AuthCallbackPort is the port used for the local auth callback server.
	AuthCallbackPort = 9847

	// AuthTimeout bounds how long Login waits for the user.
	AuthTimeout = 5 * time.Minute
)

// ErrAuthTimeout is returned when the user does not authorize in time.
var ErrAuthTimeout = errors.New("timed out waiting for authorization")

const authPage = `<!DOCTYPE html>
<html>
<head><title>Vyra - Last.fm Authorization</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`

// AuthServer handles the auth callback flow.
type AuthServer struct {
	server    *http.Server
	listener  net.Listener
	tokenChan chan string
	done      chan struct{}
}

// StartAuthServer starts a local HTTP server on addr to receive the callback.
func StartAuthServer(addr string) (*AuthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	as := &AuthServer{
		listener:  listener,
		tokenChan: make(chan string, 1),
		done:      make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", as.handleCallback)
	as.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = as.server.Serve(listener)
		close(as.done)
	}()
	return as, nil
}

func (as *AuthServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	w.Header().Set("Content-Type", "text/html")
	if token != "" {
		fmt.Fprintf(w, authPage, "Authorization Successful!", "You can close this window and return to Vyra.")
	} else {
		fmt.Fprintf(w, authPage, "Authorization Failed", "No token received. Please try again.")
		return
	}

	select {
	case as.tokenChan <- token:
	default:
	}
}

// CallbackURL is the URL Last.fm should redirect to.
func (as *AuthServer) CallbackURL() string {
	return "http://" + as.listener.Addr().String() + "/callback"
}

// TokenChan returns the channel that receives the auth token.
func (as *AuthServer) TokenChan() <-chan string {
	return as.tokenChan
}

// Shutdown stops the auth server.
func (as *AuthServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = as.server.Shutdown(ctx)
	<-as.done
}

// waitForToken returns the first token received, or ErrAuthTimeout.
func waitForToken(ctx context.Context, tokens <-chan string, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case token := <-tokens:
		return token, nil
	case <-timer.C:
		return "", ErrAuthTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SessionStore persists the linked account.
type SessionStore interface {
	SaveLastfmSession(username, sessionKey string) error
}

// Login runs the web auth flow: it opens the authorization page with open,
// waits for the callback and stores the resulting session.
func Login(ctx context.Context, client *Client, store SessionStore, open func(url string) error) (string, error) {
	token, err := client.GetToken()
	if err != nil {
		return "", err
	}

	srv, err := StartAuthServer(fmt.Sprintf("localhost:%d", AuthCallbackPort))
	if err != nil {
		return "", err
	}
	defer srv.Shutdown()

	if err := open(client.GetAuthURL(token, srv.CallbackURL())); err != nil {
		return "", fmt.Errorf("open browser: %w", err)
	}
	authorized, err := waitForToken(ctx, srv.TokenChan(), AuthTimeout)
	if err != nil {
		return "", err
	}
	if authorized != "" {
		token = authorized
	}

	username, sessionKey, err := client.GetSession(token)
	if err != nil {
		return "", err
	}
	client.SetSessionKey(sessionKey)
	if err := store.SaveLastfmSession(username, sessionKey); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return username, nil
}

// OpenBrowser opens the given URL in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
