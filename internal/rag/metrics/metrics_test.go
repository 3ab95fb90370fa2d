package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-docqa/pkg/llm/resilience"
)

type fakePool struct{}

func (fakePool) Name() string { return "embedding" }
func (fakePool) Cap() int     { return 8 }
func (fakePool) Running() int { return 3 }
func (fakePool) Waiting() int { return 1 }

var _ PoolStats = fakePool{}

func TestRecordIngest(t *testing.T) {
	m := New("docqa")

	m.RecordIngest(3, 1, nil)
	m.RecordIngest(0, 2, assert.AnError)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.ingestChunks.WithLabelValues(ResultStored)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.ingestChunks.WithLabelValues(ResultDropped)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ingestTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ingestTotal.WithLabelValues(StatusError)))
}

func TestRecordAnswerAndStage(t *testing.T) {
	m := New("docqa")

	m.RecordAnswer(nil)
	m.RecordAnswer(nil)
	m.RecordAnswer(assert.AnError)
	m.ObserveStage(StageGenerate, time.Now().Add(-time.Second))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.answersTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.answersTotal.WithLabelValues(StatusError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration, "docqa_stage_duration_seconds"))
}

func TestHandlerExportsMetrics(t *testing.T) {
	m := New("docqa")
	m.RecordIngest(2, 0, nil)
	m.RegisterPool("docqa", fakePool{})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `docqa_ingest_chunks_total{result="stored"} 2`)
	assert.Contains(t, body, `docqa_pool_capacity{pool="embedding"} 8`)
	assert.Contains(t, body, `docqa_pool_waiting{pool="embedding"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestRegisterBreaker(t *testing.T) {
	m := New("docqa")
	m.RegisterBreaker("docqa", "generation", nil)

	cb := resilience.NewCircuitBreaker(&resilience.CircuitBreakerConfig{
		MaxFailures: 1,
		Timeout:     time.Minute,
		IsFailure:   func(error) bool { return true },
	})
	m.RegisterBreaker("docqa", "embedding", cb)

	_ = cb.Execute(func() error { return assert.AnError })
	_ = cb.Execute(func() error { return nil })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `docqa_breaker_state{endpoint="embedding"} 1`)
	assert.Contains(t, body, `docqa_breaker_rejected_total{endpoint="embedding"} 1`)
	assert.NotContains(t, body, `endpoint="generation"`)
}
