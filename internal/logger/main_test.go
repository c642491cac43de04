package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/logger"
)

func TestInit(t *testing.T) {
	testCases := []struct {
		name       string
		cfg        logger.Log
		wantErr    error
		wantStdout bool
		wantStderr bool
		wantJSON   bool
	}{
		{
			name:    "missing service name",
			cfg:     logger.Log{LogLevel: "info", AppName: "test"},
			wantErr: logger.ErrServiceNameIsEmpty,
		},
		{
			name:    "missing app name",
			cfg:     logger.Log{LogLevel: "info", ServiceName: "test"},
			wantErr: logger.ErrAppNameIsEmpty,
		},
		{
			name: "no writer enabled",
			cfg:  logger.Log{LogLevel: "info", AppName: "test", ServiceName: "test"},
		},
		{
			name: "console json",
			cfg: logger.Log{
				LogLevel: "info", AppName: "test", ServiceName: "test",
				Console: logger.Console{Enabled: true},
			},
			wantStdout: true,
			wantStderr: true,
			wantJSON:   true,
		},
		{
			name: "console writer with caller",
			cfg: logger.Log{
				LogLevel: "trace", AppName: "test", ServiceName: "test", ReportCaller: true,
				Console: logger.Console{Enabled: true, UseConsoleWriter: true},
			},
			wantStdout: true,
			wantStderr: true,
		},
		{
			name: "warn level hides info",
			cfg: logger.Log{
				LogLevel: "warn", AppName: "test", ServiceName: "test",
				Console: logger.Console{Enabled: true},
			},
			wantStderr: true,
			wantJSON:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			err := logger.InitWithConsole(tc.cfg, &stdout, &stderr)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)

			log.Info().Str("entity", "user").Msg("loaded")
			log.Error().Str("entity", "user").Msg("failed")

			assert.Equal(t, tc.wantStdout, stdout.Len() > 0, "stdout: %s", stdout.String())
			assert.Equal(t, tc.wantStderr, stderr.Len() > 0, "stderr: %s", stderr.String())

			if tc.wantJSON {
				for _, line := range strings.Split(strings.TrimSpace(stderr.String()), "\n") {
					var ev map[string]any
					require.NoError(t, json.Unmarshal([]byte(line), &ev), line)
					assert.Equal(t, "test", ev["app"])
					assert.Equal(t, "user", ev["entity"])
				}
			}
		})
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestInitRollingFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	err := logger.Init(logger.Log{
		LogLevel:    "debug",
		AppName:     "test",
		ServiceName: "test",
		File: logger.LogFile{
			Enabled: true,
			Path:    dir,
			Error:   logger.RollingFile{Name: "error.log"},
			Info:    logger.RollingFile{Name: "info.log"},
			Trace:   logger.RollingFile{Name: "trace.log"},
			Warn:    logger.RollingFile{Name: "warn.log"},
		},
	})
	require.NoError(t, err)

	log.Info().Msg("to info")
	log.Warn().Msg("to warn")

	info, err := os.ReadFile(filepath.Join(dir, "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "to info")

	warn, err := os.ReadFile(filepath.Join(dir, "warn.log"))
	require.NoError(t, err)
	assert.Contains(t, string(warn), "to warn")
	assert.NotContains(t, string(warn), "to info")

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestLevelWriter(t *testing.T) {
	var errW, infoW, traceW, warnW bytes.Buffer

	lw := &logger.LevelWriter{ErrorWriter: &errW, InfoWriter: &infoW, TraceWriter: &traceW, WarnWriter: &warnW}

	testCases := []struct {
		level zerolog.Level
		want  *bytes.Buffer
	}{
		{zerolog.TraceLevel, &traceW},
		{zerolog.DebugLevel, &infoW},
		{zerolog.InfoLevel, &infoW},
		{zerolog.WarnLevel, &warnW},
		{zerolog.ErrorLevel, &errW},
		{zerolog.FatalLevel, &errW},
	}

	for _, tc := range testCases {
		t.Run(tc.level.String(), func(t *testing.T) {
			before := tc.want.Len()

			n, err := lw.WriteLevel(tc.level, []byte("x"))
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			assert.Equal(t, before+1, tc.want.Len())
		})
	}

	n, err := lw.WriteLevel(zerolog.Disabled, []byte("x"))
	require.NoError(t, err)
	assert.Zero(t, n)
}
