// Package pool provides the ants-backed worker pool used for embedding fan-out.
package pool

import "errors"

var (
	ErrPoolClosed   = errors.New("pool: closed")
	ErrPoolOverload = errors.New("pool: overloaded")
)
