package main

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/syssam/cmpby/compiler/gen"
)

// EnvPrefix prefixes the environment variables read by the command, like
// CMPBY_SUFFIX or CMPBY_BUILD_FLAGS.
const EnvPrefix = "CMPBY"

// Settings holds the merged configuration of a run. Flags take precedence
// over environment variables, which take precedence over cmpby.yaml.
type Settings struct {
	Dir        string   `mapstructure:"dir"`
	BuildFlags []string `mapstructure:"build-flags"`
	Suffix     string   `mapstructure:"suffix"`
	Header     string   `mapstructure:"header"`
	Workers    int      `mapstructure:"workers"`
	DryRun     bool     `mapstructure:"dry-run"`
	Verbose    bool     `mapstructure:"verbose"`
	LogLevel   string   `mapstructure:"log-level"`
}

// readSettings merges the configuration file, the environment and the flags.
// A missing cmpby.yaml is not an error; a missing explicit file is.
func readSettings(configFile string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("cmpby")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Options converts the settings to generator options.
func (s *Settings) Options(log *zap.Logger) []gen.Option {
	opts := []gen.Option{
		gen.WithBuildFlags(s.BuildFlags...),
		gen.WithHeader(s.Header),
		gen.WithWorkers(s.Workers),
		gen.WithDryRun(s.DryRun),
		gen.WithLogger(log),
	}
	if s.Dir != "" {
		opts = append(opts, gen.WithDir(s.Dir))
	}
	if s.Suffix != "" {
		opts = append(opts, gen.WithSuffix(s.Suffix))
	}
	return opts
}

// Config builds the generator configuration, reporting every invalid
// setting at once.
func (s *Settings) Config(log *zap.Logger) (*gen.Config, error) {
	c := &gen.Config{}
	if err := c.ApplyAll(s.Options(log)...); err != nil {
		return nil, err
	}
	return c, nil
}

// newLogger builds the console logger of the command. Logs go to stderr so
// that inspect output stays machine readable.
func newLogger(s *Settings) *zap.Logger {
	lvl := zapcore.WarnLevel
	if s.Verbose {
		lvl = zapcore.DebugLevel
	}
	if s.LogLevel != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(s.LogLevel))); err != nil {
			lvl = zapcore.WarnLevel
		}
	}
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(lvl))
	var opts []zap.Option
	if s.Verbose {
		opts = append(opts, zap.AddCaller(), zap.Development())
	}
	return zap.New(core, opts...).Named("cmpbygen")
}
