package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/intraworks/workbench/internal/errors"
)

// User represents a workspace user
type User struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Role        string       `json:"role"`
	RoleInfo    string       `json:"role_info"`
	Permissions []Permission `json:"permissions"`
}

// Permission binds a board to per-action capabilities
type Permission struct {
	BoardID   string `json:"board_id"`
	CanRead   bool   `json:"can_read"`
	CanWrite  bool   `json:"can_write"`
	CanDelete bool   `json:"can_delete"`
}

// TokenInfo carries token expiry metadata. The tokens themselves are
// HttpOnly cookies and never reach client code; expiry timestamps are all
// the client needs to decide when to refresh.
//
// On the wire both fields are epoch milliseconds.
type TokenInfo struct {
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// tokenInfoWire is the JSON shape of TokenInfo
type tokenInfoWire struct {
	AccessTokenExpiry  int64 `json:"access_token_expiry"`
	RefreshTokenExpiry int64 `json:"refresh_token_expiry"`
}

// MarshalJSON implements json.Marshaler
func (t TokenInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(tokenInfoWire{
		AccessTokenExpiry:  t.AccessExpiresAt.UnixMilli(),
		RefreshTokenExpiry: t.RefreshExpiresAt.UnixMilli(),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (t *TokenInfo) UnmarshalJSON(data []byte) error {
	var w tokenInfoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.AccessExpiresAt = time.UnixMilli(w.AccessTokenExpiry)
	t.RefreshExpiresAt = time.UnixMilli(w.RefreshTokenExpiry)
	return nil
}

// loginRequest represents a login request
type loginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// authResponse represents login and refresh responses
type authResponse struct {
	User      *User      `json:"user"`
	TokenInfo *TokenInfo `json:"token_info"`
}

// Login authenticates with the workspace server. The session cookies are
// captured by the client's cookie jar; the returned TokenInfo may be nil
// on deployments that do not expose expiry metadata.
//
// A failed login carries the server's user-displayable message.
func (c *Client) Login(ctx context.Context, id, password string) (*User, *TokenInfo, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/v1/auth/login", loginRequest{ID: id, Password: password})
	if err != nil {
		return nil, nil, err
	}

	var authResp authResponse
	if err := parseResponse(resp, &authResp); err != nil {
		if errors.HasCode(err, errors.ErrCodeAuthUnauthorized) {
			msg := ""
			if e, ok := err.(*errors.WorkbenchError); ok {
				msg = e.Message
			}
			return nil, nil, errors.NewInvalidCredentialsError(msg)
		}
		return nil, nil, err
	}

	if authResp.User == nil {
		return nil, nil, errors.New(errors.ErrCodeAuthIncompleteResponse, "login response is missing the user")
	}

	return authResp.User, authResp.TokenInfo, nil
}

// RefreshToken silently renews the access token using the refresh cookie.
// Fails when the refresh cookie is missing, invalid, or expired. A 2xx
// response missing either the user or the token metadata is treated as
// incomplete and rejected, so callers can fail closed.
func (c *Client) RefreshToken(ctx context.Context) (*User, *TokenInfo, error) {
	resp, err := c.doRequest(ctx, "POST", "/api/v1/auth/refresh", nil)
	if err != nil {
		return nil, nil, err
	}

	var authResp authResponse
	if err := parseResponse(resp, &authResp); err != nil {
		return nil, nil, errors.NewRefreshFailedError(err)
	}

	if authResp.User == nil || authResp.TokenInfo == nil {
		return nil, nil, errors.New(errors.ErrCodeAuthIncompleteResponse, "refresh response is missing user or token metadata")
	}

	return authResp.User, authResp.TokenInfo, nil
}

// GetCurrentUser retrieves the currently authenticated user.
// Returns an AUTH-004 coded error when no valid session cookie exists.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/v1/users/me", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := parseResponse(resp, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// Logout tears down the server-side session. Best effort: callers clear
// local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, "POST", "/api/v1/auth/logout", nil)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}
