package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/sessions"
)

const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/refresh"
	LogoutPath  = "/auth/logout"
	MePath      = "/auth/me"
)

// renewSession is the default Renewer: POST /auth/refresh with no body and no
// Authorization header. The refresh cookie in the transport's jar is the only
// credential sent.
func (c *Client) renewSession(ctx context.Context) (*apimodel.SessionResponse, error) {
	var out apimodel.SessionResponse
	err := c.DoJSON(ctx, &Request{
		Method:    http.MethodPost,
		Path:      RefreshPath,
		Anonymous: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, fmt.Errorf("%w: refresh response has no access token", ErrMalformedResponse)
	}
	return &out, nil
}

// Login exchanges credentials for a session. The server answers with an access
// token and identity in the body and sets the refresh cookie on the transport.
func (c *Client) Login(ctx context.Context, email, password string) (*apimodel.Identity, error) {
	var out apimodel.SessionResponse
	err := c.DoJSON(ctx, &Request{
		Method:    http.MethodPost,
		Path:      LoginPath,
		Body:      apimodel.LoginRequest{Email: email, Password: password},
		Anonymous: true,
	}, &out)
	if err != nil {
		return nil, err
	}

	token := sessions.NewAccessToken(out.AccessToken)
	if token == nil || out.User == nil {
		return nil, fmt.Errorf("%w: login response needs accessToken and user", ErrMalformedResponse)
	}
	c.store.SetSession(ctx, *out.User, token)
	c.logger.Info().Str("user_id", out.User.ID).Str("role", string(out.User.Role)).Msg("apiclient: logged in")
	return c.store.CurrentIdentity(), nil
}

// Logout ends the session on the server and always clears it locally. The
// server error, if any, is returned after the local session is gone.
func (c *Client) Logout(ctx context.Context) error {
	defer c.store.ClearSession(context.WithoutCancel(ctx))

	err := c.DoJSON(ctx, &Request{Method: http.MethodPost, Path: LogoutPath}, nil)
	if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrRefreshFailed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.logger.Info().Msg("apiclient: logged out")
	return nil
}

// Resume restores a session after a restart. The persisted identity is loaded
// and, when one exists, a refresh obtains a fresh access token through the
// refresh cookie. It reports whether the client ends up authenticated.
func (c *Client) Resume(ctx context.Context) (bool, error) {
	c.store.Hydrate(ctx)
	if c.store.IsAuthenticated() {
		return true, nil
	}
	if c.store.CurrentIdentity() == nil {
		return false, nil
	}
	if err := c.refresher.await(ctx, ""); err != nil {
		return false, err
	}
	return c.store.IsAuthenticated(), nil
}

// Me fetches the identity the server associates with the current token.
func (c *Client) Me(ctx context.Context) (*apimodel.Identity, error) {
	var out apimodel.Identity
	if err := c.DoJSON(ctx, &Request{Method: http.MethodGet, Path: MePath}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile edits the signed-in user's profile and folds the stored
// result back into the session identity.
func (c *Client) UpdateProfile(ctx context.Context, update apimodel.IdentityUpdate) (*apimodel.Identity, error) {
	var out apimodel.Identity
	if err := c.DoJSON(ctx, &Request{Method: http.MethodPatch, Path: MePath, Body: update}, &out); err != nil {
		return nil, err
	}
	c.store.UpdateIdentity(ctx, out.AsUpdate())
	return c.store.CurrentIdentity(), nil
}
