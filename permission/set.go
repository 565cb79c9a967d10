package permission

import (
	"encoding/json"
	"sort"
)

// Set is an immutable set of canonical permission codes.
type Set struct {
	codes map[string]struct{}
}

// NewSet normalises perms into a Set. Empty codes are dropped.
func NewSet(perms ...Permission) Set {
	codes := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		if c := p.Code(); c != "" {
			codes[c] = struct{}{}
		}
	}
	return Set{codes: codes}
}

// NewSetFromCodes builds a Set from plain codes.
func NewSetFromCodes(codes ...string) Set {
	perms := make([]Permission, 0, len(codes))
	for _, c := range codes {
		perms = append(perms, FromCode(c))
	}
	return NewSet(perms...)
}

// Has reports exact membership of code.
func (s Set) Has(code string) bool {
	_, ok := s.codes[code]
	return ok
}

// Len returns the number of distinct codes.
func (s Set) Len() int {
	return len(s.codes)
}

// Codes returns the codes in sorted order.
func (s Set) Codes() []string {
	out := make([]string, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// UnmarshalJSON decodes a list mixing string and structured permissions.
func (s *Set) UnmarshalJSON(data []byte) error {
	var perms []Permission
	if err := json.Unmarshal(data, &perms); err != nil {
		return err
	}
	*s = NewSet(perms...)
	return nil
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Codes())
}
