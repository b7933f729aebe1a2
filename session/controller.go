// Package session gates pages by role and runs the login and logout flows.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"shopfront/apiclient"
	"shopfront/obs"
	"shopfront/state"
)

// LoginPage is the navigation target for anonymous users.
const LoginPage = "login.html"

var (
	// ErrNoToken signals a login response without a token.
	ErrNoToken = errors.New("session: login response carried no token")
	// ErrMissingCredentials signals an empty email or password.
	ErrMissingCredentials = errors.New("session: email and password are required")
)

// Store is the persisted session.
type Store interface {
	Token(ctx context.Context) (string, error)
	CurrentUser(ctx context.Context) (state.UserProfile, error)
	SetSession(ctx context.Context, token string, user state.UserProfile) error
	ClearSession(ctx context.Context) error
}

// API is the backend surface the controller talks to.
type API interface {
	Call(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error)
	RevokeToken(ctx context.Context, token string) error
}

// Navigator changes the current page.
type Navigator interface {
	Navigate(page string)
}

// Overlay is held while the logout request is in flight.
type Overlay interface {
	Acquire() (release func())
}

// Controller owns the ANONYMOUS <-> AUTHENTICATED transitions.
type Controller struct {
	store   Store
	api     API
	nav     Navigator
	overlay Overlay
}

// NewController wires a Controller. overlay may be nil.
func NewController(store Store, api API, nav Navigator, overlay Overlay) *Controller {
	return &Controller{store: store, api: api, nav: nav, overlay: overlay}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	Token    string      `json:"token"`
	UserType string      `json:"userType"`
	UserID   json.Number `json:"userId"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Message  string      `json:"message,omitempty"`
}

// CheckRedirect sends the user to the login page unless a token is stored
// and the stored user has requiredRole. It reports whether it navigated.
// A stored profile that cannot be read also redirects, and the error is
// returned alongside.
func (c *Controller) CheckRedirect(ctx context.Context, requiredRole string) (bool, error) {
	token, err := c.store.Token(ctx)
	if err != nil {
		c.nav.Navigate(LoginPage)
		return true, fmt.Errorf("session: check redirect: %w", err)
	}
	user, err := c.store.CurrentUser(ctx)
	if err != nil {
		c.nav.Navigate(LoginPage)
		return true, fmt.Errorf("session: check redirect: %w", err)
	}
	if token == "" || user.UserType != requiredRole {
		c.nav.Navigate(LoginPage)
		return true, nil
	}
	return false, nil
}

// Login authenticates against the backend and stores the session.
func (c *Controller) Login(ctx context.Context, email, password string) (state.UserProfile, error) {
	if email == "" || password == "" {
		return state.UserProfile{}, ErrMissingCredentials
	}
	raw, err := c.api.Call(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return state.UserProfile{}, err
	}
	resp, err := apiclient.Decode[LoginResponse](raw)
	if err != nil {
		return state.UserProfile{}, err
	}
	if resp.Token == "" {
		return state.UserProfile{}, ErrNoToken
	}

	user := state.UserProfile{
		UserType: resp.UserType,
		UserID:   resp.UserID.String(),
		Name:     resp.Name,
		Email:    resp.Email,
	}
	if err := c.store.SetSession(ctx, resp.Token, user); err != nil {
		return state.UserProfile{}, err
	}
	obs.Logger.Info("login_succeeded", "user_id", user.UserID, "user_type", user.UserType)
	return user, nil
}

// Validate asks the backend whether the stored token is still accepted.
func (c *Controller) Validate(ctx context.Context) (bool, error) {
	raw, err := c.api.Call(ctx, http.MethodGet, "/auth/validate", nil)
	if err != nil {
		return false, err
	}
	return apiclient.Decode[bool](raw)
}

// Logout revokes the token on the backend when one is stored, then always
// clears the session and navigates to the login page. A failed revocation is
// logged and otherwise ignored; the returned error only reports a failure to
// clear local state.
func (c *Controller) Logout(ctx context.Context) error {
	token, err := c.store.Token(ctx)
	if err != nil {
		obs.Logger.Warn("logout_token_unreadable", "error", err)
		token = ""
	}

	if token != "" {
		release := func() {}
		if c.overlay != nil {
			release = c.overlay.Acquire()
		}
		if err := c.api.RevokeToken(ctx, token); err != nil {
			obs.Logger.Warn("logout_revoke_failed", "error", err)
		}
		release()
	}

	clearErr := c.store.ClearSession(ctx)
	if clearErr != nil {
		obs.Logger.Error("logout_clear_failed", "error", clearErr)
	}
	c.nav.Navigate(LoginPage)
	return clearErr
}

// Expire is the session-expired hook for apiclient.Client.
func (c *Controller) Expire(ctx context.Context) {
	_ = c.Logout(ctx)
}
