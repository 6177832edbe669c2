package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestInitLogger_JSON(t *testing.T) {
	err := InitLogger(Config{
		Level:     "debug",
		Format:    "json",
		Output:    "stdout",
		Component: "sntp-client",
	})
	require.NoError(t, err)

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitLogger_FileOutput(t *testing.T) {
	path := t.TempDir() + "/client.log"
	err := InitLogger(Config{
		Level:      "info",
		Format:     "json",
		Output:     "file",
		FilePath:   path,
		EnableFile: true,
		Component:  "sntp-client",
	})
	require.NoError(t, err)

	Info("test", "hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hello"`)
}

func TestLogFieldsAreStructured(t *testing.T) {
	var buf bytes.Buffer
	Logger = zerolog.New(&buf).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	Timestamp("pool.ntp.org", 2085978596, time.Date(2036, 2, 7, 6, 29, 56, 0, time.UTC))

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "client", event["package"])
	assert.Equal(t, "pool.ntp.org", event["server"])
	assert.Equal(t, float64(2085978596), event["unix_seconds"])
	assert.Equal(t, "Timestamp received", event["message"])
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)

	sub := WithFields("transport", map[string]interface{}{"port": 123})
	sub.Info().Msg("bound")

	assert.Contains(t, buf.String(), `"port":123`)
	assert.Contains(t, buf.String(), `"package":"transport"`)
}
