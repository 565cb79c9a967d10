package session

import (
	"context"

	"github.com/MrEthical07/dmsclient/permission"
)

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Identity is what the backend reports about an account. Login replies
// carry a token; current-user replies usually do not. Any field may be
// missing.
type Identity struct {
	Token       string
	User        *User
	Permissions permission.Set
	Roles       permission.RoleSet
}

// ProfileUpdate carries the editable profile fields. Empty fields are left
// unchanged.
type ProfileUpdate struct {
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
}

// AuthAPI is the backend surface the Store depends on. A reply with an
// explicit success:false must be reported as an error matching
// transport.ErrBusiness.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (Identity, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (Identity, error)
	Refresh(ctx context.Context) (string, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}
