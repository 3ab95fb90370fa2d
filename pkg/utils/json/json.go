// Package json is the JSON codec shared by the model clients, the Qdrant
// client and the embedding cache. It is backed by sonic configured for
// encoding/json compatibility; sonic itself falls back to encoding/json on
// architectures its JIT does not support.
package json

import "github.com/bytedance/sonic"

var api = sonic.ConfigStd

func Marshal(v any) ([]byte, error) { return api.Marshal(v) }

func Unmarshal(data []byte, v any) error { return api.Unmarshal(data, v) }
