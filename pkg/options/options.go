// Package options defines the generic options interface and common utilities.
package options

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
)

// Join concatenates prefixes with "." separator.
// If the result is non-empty, it appends a trailing ".".
// This is used to build flag names like "milvus.address" or "prefix.milvus.address".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// IOptions defines methods to implement a generic options.
type IOptions interface {
	// Validate validates all the required options.
	// It can also used to complete options if needed.
	Validate() []error

	// AddFlags adds flags related to given flagset.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct 按 validate 标签校验结构体，每个失败字段返回一个 ErrConfig。
// section 作为字段名前缀，例如 "rag" 得到 "rag.ChunkSize"。
func ValidateStruct(section string, s any) []error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []error{errors.ErrConfig.WithCause(err)}
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if section != "" {
			field = section + "." + field
		}
		msg := fmt.Sprintf("%s failed on %q", field, fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s failed on %q (%s)", field, fe.Tag(), fe.Param())
		}
		errs = append(errs, errors.ErrConfig.WithMessage(msg))
	}
	return errs
}
