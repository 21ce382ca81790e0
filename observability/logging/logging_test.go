package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "lotteryd", "test", slog.LevelInfo)
	logger.Info("draw settled", "round", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "draw settled", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "lotteryd", line["service"])
	require.Equal(t, "test", line["env"])
	require.Contains(t, line, "timestamp")
	require.EqualValues(t, 3, line["round"])
}

func TestSetupWithOptionsWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotteryd.log")
	logger, closer := SetupWithOptions("lotteryd", "", Options{File: path, MaxSizeMB: 1})
	logger.Warn("rotating")
	require.NoError(t, closer.Close())
	require.FileExists(t, path)
}

func TestMaskField(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("hmac_secret", "s3cret").Value.String())
	require.Equal(t, "draw", MaskField("method", "draw").Value.String())
	require.Equal(t, "", MaskField("hmac_secret", "").Value.String())
}

func TestRedactDSN(t *testing.T) {
	url := RedactDSN("postgres://lottery:hunter2@db:5432/history?sslmode=disable")
	require.NotContains(t, url, "hunter2")
	require.True(t, strings.HasPrefix(url, "postgres://lottery:"))
	require.Contains(t, url, "@db:5432/history")

	kw := RedactDSN("host=db user=lottery password=hunter2 dbname=history")
	require.NotContains(t, kw, "hunter2")
	require.Contains(t, kw, "dbname=history")

	require.Equal(t, "history.db", RedactDSN("history.db"))
}
