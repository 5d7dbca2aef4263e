package logger

import (
	"fmt"
	"io"
	"os"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the logger of a migration job.
type Config struct {
	Format string `toml:"format" mapstructure:"format"`
	Level  string `toml:"level" mapstructure:"level"`
}

// NewConfig returns a new instance of Config with defaults.
func NewConfig() Config {
	return Config{
		Format: "auto",
		Level:  "info",
	}
}

// LoadConfig reads the "log" section of v over the defaults.
func LoadConfig(v *viper.Viper) (Config, error) {
	c := NewConfig()
	if sub := v.Sub("log"); sub != nil {
		if err := sub.Unmarshal(&c); err != nil {
			return c, err
		}
	}
	return c, nil
}

// New builds the logger described by c writing to defaultOutput.
// The auto format is console on a terminal and logfmt otherwise.
func (c Config) New(defaultOutput io.Writer) (*zap.Logger, error) {
	w := defaultOutput
	format := c.Format
	if format == "" || format == "auto" {
		format = "logfmt"
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			format = "console"
		}
	}

	encoder, err := newEncoder(format)
	if err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if c.Level != "" {
		if level, err = zapcore.ParseLevel(c.Level); err != nil {
			return nil, err
		}
	}

	return zap.New(zapcore.NewCore(
		encoder,
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)), nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	config := newEncoderConfig()
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(config), nil
	case "console":
		return zapcore.NewConsoleEncoder(config), nil
	case "logfmt":
		return zaplogfmt.NewEncoder(config), nil
	default:
		return nil, fmt.Errorf("unknown logging format: %s", format)
	}
}
