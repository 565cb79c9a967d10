package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/dmsclient/permission"
	"github.com/MrEthical07/dmsclient/session"
	"github.com/MrEthical07/dmsclient/transport"
)

// ErrNoToken is returned when a refresh reply carries no token.
var ErrNoToken = errors.New("reply carried no token")

// Auth is the /auth endpoint group. It implements session.AuthAPI.
type Auth struct {
	t Transport
}

var _ session.AuthAPI = (*Auth)(nil)

type userPayload struct {
	session.User
	Permissions *permission.Set     `json:"permissions"`
	Roles       *permission.RoleSet `json:"roles"`
}

type identityPayload struct {
	Token       string              `json:"token"`
	User        *userPayload        `json:"user"`
	Permissions *permission.Set     `json:"permissions"`
	Roles       *permission.RoleSet `json:"roles"`
	Data        *identityPayload    `json:"data"`
}

// identity resolves each field from the root, then "data", then the user
// record, first hit wins.
func (p identityPayload) identity() session.Identity {
	layers := []*identityPayload{&p}
	if p.Data != nil {
		layers = append(layers, p.Data)
	}

	var id session.Identity
	var perms *permission.Set
	var roles *permission.RoleSet
	var user *userPayload
	for _, l := range layers {
		if id.Token == "" {
			id.Token = l.Token
		}
		if user == nil {
			user = l.User
		}
		if perms == nil {
			perms = l.Permissions
		}
		if roles == nil {
			roles = l.Roles
		}
	}
	if user != nil {
		u := user.User
		id.User = &u
		if perms == nil {
			perms = user.Permissions
		}
		if roles == nil {
			roles = user.Roles
		}
	}
	if perms != nil {
		id.Permissions = *perms
	}
	if roles != nil {
		id.Roles = *roles
	}
	return id
}

// Login posts credentials.
func (a *Auth) Login(ctx context.Context, creds session.Credentials) (session.Identity, error) {
	var reply identityPayload
	if err := a.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/auth/login", Body: creds}, &reply); err != nil {
		return session.Identity{}, err
	}
	return reply.identity(), nil
}

// Logout ends the server-side session.
func (a *Auth) Logout(ctx context.Context) error {
	return a.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/auth/logout"}, nil)
}

// CurrentUser fetches /auth/me.
func (a *Auth) CurrentUser(ctx context.Context) (session.Identity, error) {
	var reply identityPayload
	if err := a.t.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/auth/me"}, &reply); err != nil {
		return session.Identity{}, err
	}
	return reply.identity(), nil
}

// Refresh requests a new token.
func (a *Auth) Refresh(ctx context.Context) (string, error) {
	var reply identityPayload
	if err := a.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/auth/refresh"}, &reply); err != nil {
		return "", err
	}
	token := reply.identity().Token
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// UpdateProfile puts the editable profile fields and returns the user the
// backend echoes, if any.
func (a *Auth) UpdateProfile(ctx context.Context, update session.ProfileUpdate) (*session.User, error) {
	var reply identityPayload
	if err := a.t.Do(ctx, transport.Request{Method: http.MethodPut, Path: "/auth/profile", Body: update}, &reply); err != nil {
		return nil, err
	}
	return reply.identity().User, nil
}

// ChangePassword changes the signed-in user's password.
func (a *Auth) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return a.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/auth/change-password", Body: body}, nil)
}

// ForgotPassword requests a reset mail.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return a.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/auth/forgot-password", Body: body}, nil)
}

// ResetPassword completes a reset.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "new_password": newPassword}
	return a.t.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/auth/reset-password", Body: body}, nil)
}
