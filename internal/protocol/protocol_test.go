package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRequestShape(t *testing.T) {
	req := Request{ID: "req_1", Token: "tok", Method: MethodStorageGet, Params: []any{"k", nil}}

	data, err := Encode(req.Envelope())
	require.NoError(t, err)

	env, err := Decode(data)
	require.NoError(t, err)

	got, ok := env.Request()
	require.True(t, ok)
	assert.Equal(t, "req_1", got.ID)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, MethodStorageGet, got.Method)
	assert.Equal(t, []any{"k", nil}, got.Params)

	_, isReply := env.Reply()
	assert.False(t, isReply)
}

func TestEnvelopeReplyShape(t *testing.T) {
	data, err := Encode(Failure("req_2", Unavailable("net.request")).Envelope())
	require.NoError(t, err)

	env, err := Decode(data)
	require.NoError(t, err)

	reply, ok := env.Reply()
	require.True(t, ok)
	assert.False(t, reply.OK)
	assert.Equal(t, CodeCapabilityUnavailable, reply.Code)
	assert.Contains(t, reply.Error, "net.request")
}

func TestDecodeRejectsForeignPayloads(t *testing.T) {
	payloads := []string{
		`{"type":"chat","message":"hi"}`,
		`"just a string"`,
		`not json`,
	}

	for _, p := range payloads {
		_, err := Decode([]byte(p))
		assert.Error(t, err, p)
	}
}

func TestRequestViewRequiresIDAndMethod(t *testing.T) {
	_, ok := Envelope{Kind: KindRequest, Method: "log"}.Request()
	assert.False(t, ok)

	_, ok = Envelope{Kind: KindRequest, ID: "req_1"}.Request()
	assert.False(t, ok)
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Code
	}{
		{ErrUnauthorized, CodeUnauthorized},
		{fmt.Errorf("%w: nope", ErrUnknownMethod), CodeUnknownMethod},
		{Unavailable("clipboard"), CodeCapabilityUnavailable},
		{errors.New("disk full"), CodeHandlerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CodeOf(tt.err), tt.err.Error())
	}
}

func TestCallErrorUnwrap(t *testing.T) {
	err := ReplyError(MethodStorageSet, Reply{ID: "x", Error: "unauthorized", Code: CodeUnauthorized})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "storage.set: unauthorized", err.Error())

	timeout := TimeoutError(MethodNetRequest)
	assert.ErrorIs(t, timeout, ErrTimeout)
	assert.Contains(t, timeout.Error(), MethodNetRequest)

	legacy := ReplyError(MethodLog, Reply{ID: "y", Error: "boom"})
	assert.ErrorIs(t, legacy, ErrHandler)
}

type cyclic struct {
	Self *cyclic
}

func TestSanitize(t *testing.T) {
	t.Run("plain values survive", func(t *testing.T) {
		in := map[string]any{"a": 1, "b": []string{"x"}}
		assert.Equal(t, map[string]any{"a": float64(1), "b": []any{"x"}}, Sanitize(in))
	})

	t.Run("structs become objects", func(t *testing.T) {
		type style struct {
			StyleID string `json:"styleId"`
		}
		assert.Equal(t, map[string]any{"styleId": "s1"}, Sanitize(style{StyleID: "s1"}))
	})

	t.Run("cycles fall back to a string", func(t *testing.T) {
		c := &cyclic{}
		c.Self = c
		out := Sanitize(c)
		assert.IsType(t, "", out)
	})

	t.Run("channels fall back to a string", func(t *testing.T) {
		out := Sanitize(make(chan int))
		assert.Equal(t, "[unserializable chan int]", out)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Sanitize(nil))
	})
}

func TestParams(t *testing.T) {
	p := Params{"key", map[string]any{"id": "x", "replace": true}, []any{1.0}}

	s, err := p.String(0, "key", true)
	require.NoError(t, err)
	assert.Equal(t, "key", s)

	_, err = p.String(3, "missing", true)
	assert.Error(t, err)

	opt, err := p.String(3, "missing", false)
	require.NoError(t, err)
	assert.Empty(t, opt)

	_, err = p.String(2, "list", true)
	assert.Error(t, err)

	m, err := p.Map(1, "options")
	require.NoError(t, err)
	assert.Equal(t, "x", GetString(m, "id"))
	assert.True(t, GetBool(m, "replace", false))

	empty, err := p.Map(5, "options")
	require.NoError(t, err)
	assert.Empty(t, empty)

	list, err := p.List(2, "items")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetMillis(t *testing.T) {
	m := map[string]any{"timeoutMs": 1500.0, "bad": "x"}
	assert.Equal(t, "1.5s", GetMillis(m, "timeoutMs").String())
	assert.Zero(t, GetMillis(m, "bad"))
	assert.Zero(t, GetMillis(m, "absent"))
}
