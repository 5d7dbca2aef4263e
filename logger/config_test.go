package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfig_New(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		want    string
		wantErr bool
	}{
		{
			name:   "logfmt when not a terminal",
			config: NewConfig(),
			want:   `msg="100 / 250" collection=users`,
		},
		{
			name:   "json",
			config: Config{Format: "json", Level: "debug"},
			want:   `"msg":"100 / 250","collection":"users"`,
		},
		{
			name:   "console",
			config: Config{Format: "console"},
			want:   "100 / 250\t{\"collection\": \"users\"}",
		},
		{
			name:    "unknown format",
			config:  Config{Format: "xml"},
			wantErr: true,
		},
		{
			name:    "unknown level",
			config:  Config{Format: "json", Level: "loud"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := tt.config.New(&buf)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			log.Info("100 / 250", zap.String("collection", "users"))
			require.NoError(t, log.Sync())
			require.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestConfig_Level(t *testing.T) {
	var buf bytes.Buffer
	log, err := Config{Format: "json", Level: "warn"}.New(&buf)
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	require.False(t, strings.Contains(buf.String(), "dropped"))
	require.True(t, strings.Contains(buf.String(), "kept"))
}

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("log:\n  format: json\n  level: debug\n")))

	c, err := LoadConfig(v)
	require.NoError(t, err)
	require.Equal(t, Config{Format: "json", Level: "debug"}, c)

	c, err = LoadConfig(viper.New())
	require.NoError(t, err)
	require.Equal(t, NewConfig(), c)
}
