package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-docqa/pkg/component/milvus"
	"github.com/kart-io/sentinel-docqa/pkg/errors"
	milvusopts "github.com/kart-io/sentinel-docqa/pkg/options/milvus"
)

func TestMilvusNameValidation(t *testing.T) {
	b := &milvusBackend{}
	assert.NoError(t, b.validName("annual_report_2024"))
	assert.NoError(t, b.validName("_x"))
	assert.Error(t, b.validName("2024report"))
	assert.Error(t, b.validName("annual report"))
	assert.Error(t, b.validName("a-b"))
}

// 需要可访问的 Milvus，地址取 MILVUS_ADDRESS，默认 localhost:19530。
func TestMilvusStoreIntegration(t *testing.T) {
	opts := milvusopts.NewOptions()
	if addr := os.Getenv("MILVUS_ADDRESS"); addr != "" {
		opts.Address = addr
	}
	conn, err := net.DialTimeout("tcp", opts.Address, 500*time.Millisecond)
	if err != nil {
		t.Skipf("milvus not reachable at %s: %v", opts.Address, err)
	}
	_ = conn.Close()

	ctx := context.Background()
	client, err := milvus.New(ctx, opts)
	require.NoError(t, err)

	s := NewMilvusStore(client, 4)
	defer s.Close(ctx)

	name := fmt.Sprintf("docqa_it_%d", time.Now().UnixNano())
	v := []float32{0.1, 0.2, 0.3, 0.4}
	require.NoError(t, s.Upsert(ctx, name, []Record{{ID: uuid.NewString(), Vector: v, Text: "hello"}}))
	require.NoError(t, s.EnsureCollection(ctx, name))

	got, err := s.Search(ctx, name, v, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, got)

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, name)

	_, err = s.Search(ctx, "docqa_missing_collection", v, 1)
	assert.True(t, stderrors.Is(err, errors.ErrStoreRead))

	err = s.EnsureCollection(ctx, "bad name")
	assert.True(t, stderrors.Is(err, errors.ErrBadIdentifier))
}
