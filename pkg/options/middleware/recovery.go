package middleware

import (
	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/options"
)

// RecoveryOptions defines recovery middleware options.
type RecoveryOptions struct {
	// EnableStackTrace 在日志中附带 panic 堆栈。
	EnableStackTrace bool `json:"enable-stack-trace" mapstructure:"enable-stack-trace"`
}

func NewRecoveryOptions() *RecoveryOptions {
	return &RecoveryOptions{EnableStackTrace: true}
}

func (o *RecoveryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.EnableStackTrace, options.Join(prefixes...)+"middleware.recovery.enable-stack-trace", o.EnableStackTrace, "Log the stack trace of recovered panics.")
}
