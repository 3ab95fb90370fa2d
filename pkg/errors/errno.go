// Package errors defines the numbered errors returned by sentinel-docqa.
//
// Every error carries a 7 digit code AABBCCC: AA is the service, BB the
// category and CCC the sequence. Codes are registered once at init and
// matched with errors.Is through any wrap chain:
//
//	return errors.ErrStoreWrite.WithCause(err)
//	if stderrors.Is(err, errors.ErrStoreRead) { ... }
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/grpc/codes"
)

// Errno is a registered error code together with its transport mappings.
// Registered values are never mutated; the With* helpers return copies.
type Errno struct {
	Code      int        `json:"code"`
	HTTP      int        `json:"-"`
	GRPCCode  codes.Code `json:"-"`
	MessageEN string     `json:"message"`
	MessageZH string     `json:"message_zh,omitempty"`

	cause error
}

// New builds an Errno. Pass the result to Register to make it a sentinel.
func New(code, httpStatus int, grpcCode codes.Code, messageEN, messageZH string) *Errno {
	return &Errno{Code: code, HTTP: httpStatus, GRPCCode: grpcCode, MessageEN: messageEN, MessageZH: messageZH}
}

func (e *Errno) Error() string {
	msg := fmt.Sprintf("errno %d: %s", e.Code, e.MessageEN)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Errno) Unwrap() error { return e.cause }

// Cause returns the wrapped error, or nil.
func (e *Errno) Cause() error { return e.cause }

// Is matches on code, so copies made by WithCause or WithMessage still
// satisfy errors.Is against the registered sentinel.
func (e *Errno) Is(target error) bool {
	t, ok := target.(*Errno)
	return ok && t.Code == e.Code
}

func (e *Errno) WithCause(cause error) *Errno {
	c := *e
	c.cause = cause
	return &c
}

func (e *Errno) WithMessage(msg string) *Errno {
	c := *e
	c.MessageEN = msg
	return &c
}

func (e *Errno) WithMessagef(format string, args ...any) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Message picks the Chinese text for zh* languages when one exists.
func (e *Errno) Message(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "zh") && e.MessageZH != "" {
		return e.MessageZH
	}
	return e.MessageEN
}

// HTTPStatus defaults to 500 when unset.
func (e *Errno) HTTPStatus() int {
	if e.HTTP == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTP
}

// GRPCStatus defaults to codes.Internal when unset.
func (e *Errno) GRPCStatus() codes.Code {
	if e.GRPCCode == codes.OK {
		return codes.Internal
	}
	return e.GRPCCode
}

var registry sync.Map // int -> *Errno

// Register records e under its code. A duplicate code is a programming
// error and panics at init.
func Register(e *Errno) *Errno {
	if prev, loaded := registry.LoadOrStore(e.Code, e); loaded {
		panic(fmt.Sprintf("errno code %d already registered: %s", e.Code, prev.(*Errno).MessageEN))
	}
	return e
}

// Lookup finds the registered Errno for code.
func Lookup(code int) (*Errno, bool) {
	v, ok := registry.Load(code)
	if !ok {
		return nil, false
	}
	return v.(*Errno), true
}

// FromError returns the first Errno in err's chain. Anything else is
// reported as ErrInternal with err as its cause.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	if e, ok := asErrno(err); ok {
		return e
	}
	return ErrInternal.WithCause(err)
}

// IsCode reports whether err's chain carries code.
func IsCode(err error, code int) bool {
	e, ok := asErrno(err)
	return ok && e.Code == code
}

// GetCode returns the code in err's chain, or -1.
func GetCode(err error) int {
	if e, ok := asErrno(err); ok {
		return e.Code
	}
	return -1
}

func asErrno(err error) (*Errno, bool) {
	var e *Errno
	ok := stderrors.As(err, &e)
	return e, ok
}
