package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := Setup("rewardsd", "test", Options{Output: &buf, Level: "debug"})
	defer closer.Close()
	defer slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	logger.Debug("hello", "operation", "mint")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "hello", line["message"])
	require.Equal(t, "DEBUG", line["severity"])
	require.Equal(t, "rewardsd", line["service"])
	require.Equal(t, "test", line["env"])
	require.Contains(t, line, "timestamp")
}

func TestSetupRedactsSensitiveAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := Setup("rewardsd", "", Options{Output: &buf})
	defer closer.Close()
	defer slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	logger.Info("request", "signature", "0xdeadbeef", "jwt_secret", "hunter2", "token", "", "operation", "mint")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, RedactedValue, line["signature"])
	require.Equal(t, RedactedValue, line["jwt_secret"])
	require.Equal(t, "", line["token"])
	require.Equal(t, "mint", line["operation"])
	require.NotContains(t, line, "env")
}

func TestIsSensitive(t *testing.T) {
	require.True(t, IsSensitive(" Authorization "))
	require.True(t, IsSensitive("request_signature"))
	require.False(t, IsSensitive("caller"))
	require.False(t, IsSensitive("tokens_minted"))
	require.False(t, IsSensitive(""))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	require.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
