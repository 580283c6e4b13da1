package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/akash925/Dock-Optimizer-Rebuild-sub003/internal/errors"
)

func TestParse_ValidEnvelope(t *testing.T) {
	frame, err := Parse([]byte(`{"type":"subscribe","data":{"channel":"door-updates"}}`))
	require.NoError(t, err)
	assert.Equal(t, "subscribe", frame.Type)
	assert.JSONEq(t, `{"channel":"door-updates"}`, string(frame.Data))
}

func TestParse_DataIsOptional(t *testing.T) {
	frame, err := Parse([]byte(`{"type":"auth","tenantId":5}`))
	require.NoError(t, err)
	assert.Equal(t, "auth", frame.Type)
	assert.Nil(t, frame.Data)
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `hello there`},
		{"bare string", `"hello"`},
		{"array", `[1,2,3]`},
		{"missing type", `{"data":{}}`},
		{"non-string type", `{"type":42,"data":{}}`},
		{"empty type", `{"type":"","data":{}}`},
		{"empty input", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			require.Error(t, err)

			structured := apperrors.AsStructuredError(err)
			assert.Equal(t, apperrors.TypeProtocol, structured.Type)
			assert.Equal(t, "Invalid message format", structured.Message)
		})
	}
}

func TestDecodeAuth(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		frame, err := Parse([]byte(`{"type":"auth","tenantId":5,"userId":42,"sessionId":"s-1","token":"tok"}`))
		require.NoError(t, err)

		req, err := frame.DecodeAuth()
		require.NoError(t, err)
		assert.Equal(t, int64(5), req.TenantID)
		require.NotNil(t, req.UserID)
		assert.Equal(t, int64(42), *req.UserID)
		assert.Equal(t, "s-1", req.SessionID)
		assert.Equal(t, "tok", req.Token)
	})

	t.Run("tenant only", func(t *testing.T) {
		frame, err := Parse([]byte(`{"type":"auth","tenantId":5}`))
		require.NoError(t, err)

		req, err := frame.DecodeAuth()
		require.NoError(t, err)
		assert.Equal(t, int64(5), req.TenantID)
		assert.Nil(t, req.UserID)
	})

	t.Run("missing tenantId", func(t *testing.T) {
		frame, err := Parse([]byte(`{"type":"auth"}`))
		require.NoError(t, err)

		_, err = frame.DecodeAuth()
		require.Error(t, err)
		assert.Equal(t, apperrors.TypeProtocol, apperrors.AsStructuredError(err).Type)
	})

	t.Run("negative tenantId", func(t *testing.T) {
		frame, err := Parse([]byte(`{"type":"auth","tenantId":-1}`))
		require.NoError(t, err)

		_, err = frame.DecodeAuth()
		require.Error(t, err)
	})

	t.Run("zero userId", func(t *testing.T) {
		frame, err := Parse([]byte(`{"type":"auth","tenantId":5,"userId":0}`))
		require.NoError(t, err)

		_, err = frame.DecodeAuth()
		require.Error(t, err)
	})

	t.Run("non-numeric tenantId", func(t *testing.T) {
		frame, err := Parse([]byte(`{"type":"auth","tenantId":"five"}`))
		require.NoError(t, err)

		_, err = frame.DecodeAuth()
		require.Error(t, err)
	})
}

func TestOutboundFrames(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	t.Run("connected", func(t *testing.T) {
		raw, err := Connected(now).Marshal()
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "connected", decoded["type"])

		data := decoded["data"].(map[string]any)
		assert.Equal(t, true, data["requiresAuth"])
		assert.Equal(t, "2026-03-14T15:09:26Z", data["timestamp"])
	})

	t.Run("auth success with user", func(t *testing.T) {
		userID := int64(42)
		frame := AuthSuccess(5, &userID, now)
		assert.Equal(t, TypeAuthSuccess, frame.Type)
		assert.Equal(t, int64(5), frame.Data["tenantId"])
		assert.Equal(t, int64(42), frame.Data["userId"])
		assert.Equal(t, "2026-03-14T15:09:26Z", frame.Data["timestamp"])
	})

	t.Run("auth success without user", func(t *testing.T) {
		frame := AuthSuccess(5, nil, now)
		_, hasUser := frame.Data["userId"]
		assert.False(t, hasUser)
	})

	t.Run("error", func(t *testing.T) {
		frame := ErrorFrame("Invalid tenant ID", now)
		assert.Equal(t, TypeError, frame.Type)
		assert.Equal(t, "Invalid tenant ID", frame.Data["message"])
	})

	t.Run("event does not mutate payload", func(t *testing.T) {
		payload := map[string]any{"id": 1}
		frame := Event("schedule_update", payload, now)
		assert.Equal(t, "schedule_update", frame.Type)
		assert.Equal(t, 1, frame.Data["id"])
		assert.Equal(t, "2026-03-14T15:09:26Z", frame.Data["timestamp"])
		_, leaked := payload["timestamp"]
		assert.False(t, leaked)
	})
}
