package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Flow runs the installed-app consent flow against a loopback redirect.
type Flow struct {
	Config    *oauth2.Config
	TokenPath string
	Out       io.Writer
	// Open is handed the consent URL, e.g. to launch a browser. The URL is
	// always printed to Out as well.
	Open    func(authURL string)
	Timeout time.Duration
}

type callback struct {
	code string
	err  error
}

// Run waits for the consent redirect, exchanges the code and saves the token.
func (f *Flow) Run(ctx context.Context) (*oauth2.Token, error) {
	if f.Timeout <= 0 {
		f.Timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("opening redirect listener: %w", err)
	}

	cfg := *f.Config
	cfg.RedirectURL = "http://" + ln.Addr().String() + "/"
	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callback, 1)
	srv := &http.Server{
		Handler:           http.HandlerFunc(redirectHandler(state, results)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier))
	fmt.Fprintf(f.Out, "Open this URL in your browser to authorize access:\n\n%s\n\n", authURL)
	if f.Open != nil {
		f.Open(authURL)
	}

	var cb callback
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for authorization: %w", ctx.Err())
	case cb = <-results:
	}
	if cb.err != nil {
		return nil, cb.err
	}

	tok, err := cfg.Exchange(ctx, cb.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := SaveToken(f.TokenPath, tok); err != nil {
		return nil, err
	}
	fmt.Fprintf(f.Out, "Token saved to %s\n", f.TokenPath)
	return tok, nil
}

func redirectHandler(state string, results chan<- callback) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var cb callback
		switch {
		case q.Get("error") != "":
			cb.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("state") != state:
			cb.err = errors.New("authorization state mismatch")
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		default:
			cb.code = q.Get("code")
		}

		if cb.err != nil {
			http.Error(w, cb.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Authorization complete. You can close this tab.")
		}
		select {
		case results <- cb:
		default:
		}
	}
}
