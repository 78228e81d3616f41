package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestNewLogger_MasksFields(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{ServiceName: "otpgate", MaskFields: []string{"Password", " otp "}}, nil)

	// Act
	logger.Info("signup",
		"email", "a@b.c",
		"password", "Secret1!",
		"payload", `{"otp":"123456","email":"a@b.c"}`,
		"body", map[string]string{"password": "x", "username": "alice"},
		slog.Group("req", slog.String("OTP", "654321")),
	)

	// Assert
	line := decodeLine(t, &buf)
	assert.Equal(t, "a@b.c", line["email"])
	assert.Equal(t, "***", line["password"])
	assert.JSONEq(t, `{"otp":"***","email":"a@b.c"}`, line["payload"].(string))
	assert.Equal(t, map[string]any{"password": "***", "username": "alice"}, line["body"])
	assert.Equal(t, map[string]any{"OTP": "***"}, line["req"])
	assert.Equal(t, "otpgate", line["service"])
	assert.Contains(t, line, "ts")
	assert.Equal(t, "INFO", line["severity"])
}

func TestNewLogger_MasksWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{MaskFields: []string{"code"}}, nil).With("code", "123456")

	logger.Info("issued")

	assert.Equal(t, "***", decodeLine(t, &buf)["code"])
}

func TestNewLogger_CorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{}, nil)
	ctx := SetCorrelationID(context.Background(), "cid-1")

	logger.InfoContext(ctx, "hello")

	assert.Equal(t, "cid-1", decodeLine(t, &buf)["_cID"])
	assert.Equal(t, "cid-1", GetCorrelationID(ctx))
	assert.Empty(t, GetCorrelationID(context.Background()))
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{Level: ParseLevel("warn")}, nil)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
