// Package resilience 提供模型端点调用的韧性模式：指数退避重试与熔断器。
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
)

// RetryConfig 重试配置。
type RetryConfig struct {
	// MaxAttempts 最大尝试次数（包括首次调用）。
	MaxAttempts int
	// InitialDelay 初始延迟时间。
	InitialDelay time.Duration
	// MaxDelay 最大延迟时间。
	MaxDelay time.Duration
	// Multiplier 延迟倍增因子。
	Multiplier float64
	// Retryable 判断错误是否可重试，为 nil 时使用 IsRetryableError。
	Retryable func(error) bool
}

// DefaultRetryConfig 返回默认重试配置。
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Retryable:    IsRetryableError,
	}
}

// RetryConfigFromMaxRetries 根据重试次数（不含首次调用）构造配置。
func RetryConfigFromMaxRetries(maxRetries int) *RetryConfig {
	cfg := DefaultRetryConfig()
	if maxRetries < 0 {
		maxRetries = 0
	}
	cfg.MaxAttempts = maxRetries + 1
	return cfg
}

// RetryWithBackoff 使用指数退避重试 fn。
// 不可重试的错误原样返回；重试耗尽时返回包装了最后一次错误的错误。
// ctx 取消会立即中止等待。
func RetryWithBackoff(ctx context.Context, config *RetryConfig, fn func(ctx context.Context) error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	retryable := config.Retryable
	if retryable == nil {
		retryable = IsRetryableError
	}

	delay := config.InitialDelay
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if !retryable(err) {
			return err
		}
		if attempt >= config.MaxAttempts {
			if config.MaxAttempts > 1 {
				logger.Warnw("max retry attempts reached", "attempts", attempt, "error", err.Error())
				return fmt.Errorf("max retry attempts (%d) reached: %w", config.MaxAttempts, err)
			}
			return err
		}

		logger.Debugw("retrying after delay", "attempt", attempt, "delay", delay, "error", err.Error())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * config.Multiplier)
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}
}

// CircuitBreakerConfig 熔断器配置。
type CircuitBreakerConfig struct {
	// MaxFailures 连续失败多少次后打开熔断器。
	MaxFailures int
	// Timeout 熔断器打开后进入半开状态前的等待时间。
	Timeout time.Duration
	// HalfOpenMaxCalls 半开状态允许的探测调用次数。
	HalfOpenMaxCalls int
	// OnStateChange 状态变化回调，可为 nil。
	OnStateChange func(from, to CircuitBreakerState)
	// IsFailure 判断错误是否计入失败，为 nil 时使用 IsRetryableError。
	// 不计入失败的错误说明端点仍有响应，按成功处理。
	IsFailure func(error) bool
}

// DefaultCircuitBreakerConfig 返回默认熔断器配置。
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreakerState 熔断器状态。
type CircuitBreakerState int

const (
	// StateClosed 熔断器关闭，正常工作。
	StateClosed CircuitBreakerState = iota
	// StateOpen 熔断器打开，拒绝所有请求。
	StateOpen
	// StateHalfOpen 熔断器半开，允许部分请求探测。
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitBreakerOpen 熔断器打开错误。
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// BreakerStats 熔断器统计信息。
type BreakerStats struct {
	State           string    `json:"state"`
	Failures        int       `json:"failures"`
	LastFailureTime time.Time `json:"last_failure_time"`
	Rejected        uint64    `json:"rejected"`
}

// CircuitBreaker 熔断器实现。
type CircuitBreaker struct {
	config *CircuitBreakerConfig

	mu              sync.Mutex
	state           CircuitBreakerState
	failures        int
	lastFailureTime time.Time
	halfOpenCalls   int
	rejected        uint64
}

// NewCircuitBreaker 创建熔断器。
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = IsRetryableError
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute 通过熔断器执行函数。
// 只有 IsFailure 接受的错误计为失败；调用方取消（context.Canceled）既不计失败也不计成功。
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch {
	case err == nil:
		cb.onSuccess()
	case errors.Is(err, context.Canceled):
		if cb.state == StateHalfOpen {
			cb.halfOpenCalls--
		}
	case cb.config.IsFailure(err):
		cb.onFailure()
	default:
		cb.onSuccess()
	}
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.lastFailureTime) > cb.config.Timeout {
		cb.transition(StateHalfOpen)
	}

	switch cb.state {
	case StateClosed:
		return nil
	case StateHalfOpen:
		if cb.halfOpenCalls < cb.config.HalfOpenMaxCalls {
			cb.halfOpenCalls++
			return nil
		}
	}
	cb.rejected++
	return ErrCircuitBreakerOpen
}

func (cb *CircuitBreaker) onSuccess() {
	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.transition(StateClosed)
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			logger.Warnw("circuit breaker opening", "failures", cb.failures, "max_failures", cb.config.MaxFailures)
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		logger.Warnw("circuit breaker re-opening after half-open failure")
		cb.transition(StateOpen)
	}
}

// transition 调用方必须持有 cb.mu。
func (cb *CircuitBreaker) transition(to CircuitBreakerState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.halfOpenCalls = 0
	logger.Infow("circuit breaker state changed", "from", from.String(), "to", to.String())
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}

// State 获取当前状态。
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats 获取熔断器统计信息。
func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return BreakerStats{
		State:           cb.state.String(),
		Failures:        cb.failures,
		LastFailureTime: cb.lastFailureTime,
		Rejected:        cb.rejected,
	}
}

// Reset 重置熔断器状态。
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
	cb.failures = 0
	cb.halfOpenCalls = 0
}

// RetryWithCircuitBreaker 结合重试和熔断器执行函数。cb 为 nil 时只重试。
func RetryWithCircuitBreaker(ctx context.Context, retryConfig *RetryConfig, cb *CircuitBreaker, fn func(ctx context.Context) error) error {
	if cb == nil {
		return RetryWithBackoff(ctx, retryConfig, fn)
	}
	return RetryWithBackoff(ctx, retryConfig, func(ctx context.Context) error {
		return cb.Execute(func() error { return fn(ctx) })
	})
}
