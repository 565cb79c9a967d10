package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Kind is the category of a failed call.
type Kind uint8

const (
	// KindBusiness is an explicit success:false reply.
	KindBusiness Kind = iota + 1
	// KindUnauthorized is an HTTP 401.
	KindUnauthorized
	// KindForbidden is an HTTP 403.
	KindForbidden
	// KindNotFound is an HTTP 404.
	KindNotFound
	// KindServer is an HTTP 500.
	KindServer
	// KindHTTP is any other HTTP error status.
	KindHTTP
	// KindNetwork means no response was received.
	KindNetwork
)

var (
	ErrBusiness     = errors.New("request rejected")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrHTTP         = errors.New("http error")
	ErrNetwork      = errors.New("network error")
)

const (
	MessageBusiness       = "Error"
	MessageUnauthorized   = "Authentication failed. Please login again"
	MessageBadCredentials = "Invalid username or password"
	MessageForbidden      = "Access denied. Insufficient permissions"
	MessageNotFound       = "Resource not found"
	MessageServer         = "Server error"
	MessageRequestFailed  = "Request failed"
	MessageNetwork        = "Network error. Please check your connection"
)

func (k Kind) String() string {
	switch k {
	case KindBusiness:
		return "business"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindHTTP:
		return "http"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindBusiness:
		return ErrBusiness
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindServer:
		return ErrServer
	case KindHTTP:
		return ErrHTTP
	case KindNetwork:
		return ErrNetwork
	default:
		return nil
	}
}

// APIError is the uniform failure returned by [Client.Do].
// errors.Is matches the sentinel of its Kind and, for network failures, the
// underlying transport error.
//
// Message is what the UI shows; Detail is the raw server message, if any.
type APIError struct {
	Kind      Kind
	Status    int
	Message   string
	Detail    string
	RequestID string
	Err       error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Status > 0 {
		b.WriteString(" (")
		b.WriteString(http.StatusText(e.Status))
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Envelope is the status part every backend reply carries.
// A missing Success field counts as success.
type Envelope struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the reply explicitly set success to false.
func (e Envelope) Failed() bool {
	return e.Success != nil && !*e.Success
}

func (e Envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func decodeEnvelope(body []byte) Envelope {
	var env Envelope
	if len(body) == 0 {
		return env
	}
	// Non-JSON bodies (HTML error pages, blobs) carry no envelope.
	_ = json.Unmarshal(body, &env)
	return env
}

// Classify maps a finished exchange to an *APIError, or nil on success.
// transportErr non-nil means no response was received.
func Classify(status int, body []byte, transportErr error) *APIError {
	if transportErr != nil {
		return &APIError{Kind: KindNetwork, Message: MessageNetwork, Err: transportErr}
	}

	env := decodeEnvelope(body)
	serverMsg := env.message()

	var e *APIError
	switch {
	case status == http.StatusUnauthorized:
		e = &APIError{Kind: KindUnauthorized, Message: MessageUnauthorized}
	case status == http.StatusForbidden:
		e = &APIError{Kind: KindForbidden, Message: MessageForbidden}
	case status == http.StatusNotFound:
		e = &APIError{Kind: KindNotFound, Message: MessageNotFound}
	case status == http.StatusInternalServerError:
		e = &APIError{Kind: KindServer, Message: firstNonEmpty(serverMsg, MessageServer)}
	case status >= 400:
		e = &APIError{Kind: KindHTTP, Message: firstNonEmpty(serverMsg, MessageRequestFailed)}
	case env.Failed():
		e = &APIError{Kind: KindBusiness, Message: firstNonEmpty(serverMsg, MessageBusiness)}
	default:
		return nil
	}
	e.Status = status
	e.Detail = serverMsg
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
