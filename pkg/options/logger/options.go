// Package logger provides logger configuration options for sentinel-docqa.
package logger

import (
	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/options"
)

// Options wraps the logger option.LogOption.
// The option is embedded by value so config keys decode straight into it.
type Options struct {
	option.LogOption `mapstructure:",squash"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		LogOption: *option.DefaultLogOption(),
	}
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "log."
	fs.StringVar(&o.Engine, p+"engine", o.Engine, "Logging engine (zap|slog)")
	fs.StringVar(&o.Level, p+"level", o.Level, "Log level (DEBUG|INFO|WARN|ERROR|FATAL)")
	fs.StringVar(&o.Format, p+"format", o.Format, "Log format (json|console)")
	fs.StringSliceVar(&o.OutputPaths, p+"output-paths", o.OutputPaths, "Output paths for logs")
	fs.BoolVar(&o.Development, p+"development", o.Development, "Enable development mode")
	fs.BoolVar(&o.DisableCaller, p+"disable-caller", o.DisableCaller, "Disable caller detection")
	fs.BoolVar(&o.DisableStacktrace, p+"disable-stacktrace", o.DisableStacktrace, "Disable stacktrace capture")

	// OTLP options
	fs.StringVar(&o.OTLPEndpoint, p+"otlp-endpoint", o.OTLPEndpoint, "OTLP endpoint URL")

	// Rotation options
	if o.Rotation == nil {
		o.Rotation = &option.RotationOption{MaxSize: 100, MaxAge: 15, MaxBackups: 30, Compress: true}
	}
	fs.IntVar(&o.Rotation.MaxSize, p+"rotation.max-size", o.Rotation.MaxSize, "Maximum size in MB of the log file before rotation")
	fs.IntVar(&o.Rotation.MaxAge, p+"rotation.max-age", o.Rotation.MaxAge, "Maximum number of days to retain old log files")
	fs.IntVar(&o.Rotation.MaxBackups, p+"rotation.max-backups", o.Rotation.MaxBackups, "Maximum number of old log files to retain")
	fs.BoolVar(&o.Rotation.Compress, p+"rotation.compress", o.Rotation.Compress, "Compress rotated log files using gzip")
}

// Validate validates the logger options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	if err := o.LogOption.Validate(); err != nil {
		return []error{err}
	}
	return nil
}

// Complete completes the logger options with defaults.
func (o *Options) Complete() error {
	return nil
}

// CreateLogger creates a new logger instance based on the options.
func (o *Options) CreateLogger() (core.Logger, error) {
	return logger.New(&o.LogOption)
}

// Init 初始化全局日志，name 和 version 作为每条日志的固定字段。
func (o *Options) Init(name, version string) error {
	o.AddInitialField("service.name", name)
	o.AddInitialField("service.version", version)

	log, err := o.CreateLogger()
	if err != nil {
		return err
	}
	logger.SetGlobal(log)
	return nil
}
