package transport

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		err     error
		want    Kind
		message string
	}{
		{name: "success no envelope", status: 200, body: `{"data":1}`},
		{name: "success true", status: 200, body: `{"success":true}`},
		{name: "empty body", status: 204},
		{name: "non json body", status: 200, body: `<html></html>`},
		{name: "business failure", status: 200, body: `{"success":false,"message":"name taken"}`, want: KindBusiness, message: "name taken"},
		{name: "business failure error field", status: 200, body: `{"success":false,"error":"bad input"}`, want: KindBusiness, message: "bad input"},
		{name: "business failure no message", status: 200, body: `{"success":false}`, want: KindBusiness, message: MessageBusiness},
		{name: "unauthorized", status: 401, body: `{"success":false,"message":"token expired"}`, want: KindUnauthorized, message: MessageUnauthorized},
		{name: "forbidden ignores server text", status: 403, body: `{"message":"nope"}`, want: KindForbidden, message: MessageForbidden},
		{name: "not found", status: 404, want: KindNotFound, message: MessageNotFound},
		{name: "server error with message", status: 500, body: `{"message":"db down"}`, want: KindServer, message: "db down"},
		{name: "server error default", status: 500, want: KindServer, message: MessageServer},
		{name: "other status", status: 429, body: `{"message":"slow down"}`, want: KindHTTP, message: "slow down"},
		{name: "other status default", status: 502, want: KindHTTP, message: MessageRequestFailed},
		{name: "network", err: io.ErrUnexpectedEOF, want: KindNetwork, message: MessageNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.status, []byte(tt.body), tt.err)
			if tt.want == 0 {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.want, got.Kind)
				assert.Equal(t, tt.message, got.Message)
				assert.Equal(t, tt.status, got.Status)
			}
		})
	}
}

func TestAPIErrorIs(t *testing.T) {
	err := error(Classify(0, nil, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.False(t, errors.Is(err, ErrUnauthorized))

	err = Classify(401, nil, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	apiErr, ok := AsAPIError(err)
	assert.True(t, ok)
	assert.Equal(t, KindUnauthorized, apiErr.Kind)
	assert.Contains(t, apiErr.Error(), "Unauthorized")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "forbidden", KindForbidden.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
