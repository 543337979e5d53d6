// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// Auth decorates outgoing requests with session credentials
//
// Implementations obtain the credentials elsewhere (a browser session, a
// login helper, an identity provider). The client never negotiates a session
// itself; it calls Clear when the controller rejects the credentials.
type Auth interface {
	// Apply adds credentials to req. It returns ErrNoSession if none are
	// available.
	Apply(ctx context.Context, req *http.Request) error

	// Clear drops cached credentials
	Clear()
}

// Session cookie and header names used by vManage
const (
	SessionCookieName = "JSESSIONID"
	XSRFHeaderName    = "X-XSRF-TOKEN"
)

// SessionAuth replays an established vManage session: the JSESSIONID cookie
// and, for mutating requests, the XSRF token.
type SessionAuth struct {
	mu        sync.RWMutex
	sessionID string
	xsrfToken string
}

// NewSessionAuth creates a SessionAuth from a JSESSIONID value and an XSRF token.
//
// The XSRF token may be empty for controllers older than 19.2, which do not
// require it.
func NewSessionAuth(sessionID, xsrfToken string) *SessionAuth {
	return &SessionAuth{
		sessionID: strings.TrimSpace(sessionID),
		xsrfToken: strings.TrimSpace(xsrfToken),
	}
}

// Apply implements Auth
func (a *SessionAuth) Apply(_ context.Context, req *http.Request) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.sessionID == "" {
		return ErrNoSession
	}
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: a.sessionID})
	if a.xsrfToken != "" {
		req.Header.Set(XSRFHeaderName, a.xsrfToken)
	}
	return nil
}

// Update replaces the session credentials, e.g. after an external re-login
func (a *SessionAuth) Update(sessionID, xsrfToken string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionID = strings.TrimSpace(sessionID)
	a.xsrfToken = strings.TrimSpace(xsrfToken)
}

// Clear implements Auth
func (a *SessionAuth) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionID = ""
	a.xsrfToken = ""
}

// TokenAuth sends a bearer token from an oauth2.TokenSource.
//
// Tokens are cached until they expire. Clear forces the next request to
// fetch a fresh token from the source.
type TokenAuth struct {
	mu     sync.Mutex
	source oauth2.TokenSource
	cached oauth2.TokenSource
}

// NewTokenAuth creates a TokenAuth from src. A nil src is accepted; Apply
// then reports ErrNoSession.
//
// Example:
//
//	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiToken})
//	client, _ := catalystwan.NewClient(url,
//	    catalystwan.Authenticator(catalystwan.NewTokenAuth(src)))
func NewTokenAuth(src oauth2.TokenSource) *TokenAuth {
	a := &TokenAuth{source: src}
	if src != nil {
		a.cached = oauth2.ReuseTokenSource(nil, src)
	}
	return a
}

// Apply implements Auth
func (a *TokenAuth) Apply(_ context.Context, req *http.Request) error {
	a.mu.Lock()
	src := a.cached
	a.mu.Unlock()

	if src == nil {
		return ErrNoSession
	}
	tok, err := src.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	if !tok.Valid() {
		return ErrNoSession
	}
	tok.SetAuthHeader(req)
	return nil
}

// Clear implements Auth
func (a *TokenAuth) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.source != nil {
		a.cached = oauth2.ReuseTokenSource(nil, a.source)
	}
}
