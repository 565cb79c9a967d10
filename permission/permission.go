package permission

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidPermission is returned when a permission payload is neither a
// string nor a structured triple.
var ErrInvalidPermission = errors.New("invalid permission payload")

// Structured is the {namespace, controller, action} form of a permission.
type Structured struct {
	Namespace  string `json:"namespace"`
	Controller string `json:"controller"`
	Action     string `json:"action"`
}

// Code renders the canonical dotted form.
func (s Structured) Code() string {
	return s.Namespace + "." + s.Controller + "." + s.Action
}

// Permission is either a plain code or a structured triple. Both forms
// normalise to the same canonical string through [Permission.Code].
type Permission struct {
	code       string
	structured *Structured
}

// FromCode returns a permission holding a plain code.
func FromCode(code string) Permission {
	return Permission{code: strings.TrimSpace(code)}
}

// FromStructured returns a permission holding a structured triple.
func FromStructured(s Structured) Permission {
	return Permission{structured: &s}
}

// IsStructured reports whether the permission arrived as a triple.
func (p Permission) IsStructured() bool {
	return p.structured != nil
}

// Code returns the canonical dotted string.
func (p Permission) Code() string {
	if p.structured != nil {
		return p.structured.Code()
	}
	return p.code
}

func (p Permission) String() string {
	return p.Code()
}

// UnmarshalJSON accepts "files.browse.list" or
// {"namespace":"files","controller":"browse","action":"list"}.
func (p *Permission) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidPermission
	}
	switch data[0] {
	case '"':
		var code string
		if err := json.Unmarshal(data, &code); err != nil {
			return err
		}
		*p = FromCode(code)
		return nil
	case '{':
		var s Structured
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s.Namespace == "" {
			return ErrInvalidPermission
		}
		*p = FromStructured(s)
		return nil
	default:
		return ErrInvalidPermission
	}
}

// MarshalJSON always emits the canonical string.
func (p Permission) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Code())
}
