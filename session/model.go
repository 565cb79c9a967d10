package session

import "github.com/MrEthical07/dmsclient/permission"

// User is the profile record of the signed-in account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
	GroupID  int64  `json:"group_id,omitempty"`
	LevelID  int64  `json:"level_id,omitempty"`
	Status   int    `json:"status,omitempty"`
}

// merge overlays the non-zero fields of update onto u.
func (u User) merge(update User) User {
	if update.ID != 0 {
		u.ID = update.ID
	}
	if update.Username != "" {
		u.Username = update.Username
	}
	if update.Nickname != "" {
		u.Nickname = update.Nickname
	}
	if update.Email != "" {
		u.Email = update.Email
	}
	if update.IsAdmin {
		u.IsAdmin = true
	}
	if update.GroupID != 0 {
		u.GroupID = update.GroupID
	}
	if update.LevelID != 0 {
		u.LevelID = update.LevelID
	}
	if update.Status != 0 {
		u.Status = update.Status
	}
	return u
}

// Session is an immutable snapshot of the authentication state.
// It implements permission.Subject.
type Session struct {
	token       string
	user        *User
	permissions permission.Set
	roles       permission.RoleSet
	generation  uint64
}

// Token returns the bearer token, or "".
func (s Session) Token() string { return s.token }

// HasToken reports whether a token is held.
func (s Session) HasToken() bool { return s.token != "" }

// User returns a copy of the user record.
func (s Session) User() (User, bool) {
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// UserLoaded reports whether the user record is present.
func (s Session) UserLoaded() bool { return s.user != nil }

// IsAuthenticated is true iff both a token and a user are present.
func (s Session) IsAuthenticated() bool { return s.token != "" && s.user != nil }

// Generation identifies the identity epoch the snapshot belongs to.
func (s Session) Generation() uint64 { return s.generation }

// AdminFlag returns the user record's admin flag.
func (s Session) AdminFlag() bool { return s.user != nil && s.user.IsAdmin }

// Permissions returns the permission set.
func (s Session) Permissions() permission.Set { return s.permissions }

// Roles returns the role set.
func (s Session) Roles() permission.RoleSet { return s.roles }

// DisplayName returns the nickname, else the username, else unknown.
func (s Session) DisplayName(unknown string) string {
	if s.user == nil {
		return unknown
	}
	if s.user.Nickname != "" {
		return s.user.Nickname
	}
	if s.user.Username != "" {
		return s.user.Username
	}
	return unknown
}

// LevelID returns the user's security level, 0 when unknown.
func (s Session) LevelID() int64 {
	if s.user == nil {
		return 0
	}
	return s.user.LevelID
}

// GroupID returns the user's group and whether one is set.
func (s Session) GroupID() (int64, bool) {
	if s.user == nil || s.user.GroupID == 0 {
		return 0, false
	}
	return s.user.GroupID, true
}
