package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
)

var installLogger sync.Once

// redisLogger 把 go-redis 内部日志（重连、连接池告警）转到全局 logger。
type redisLogger struct{}

func (redisLogger) Printf(ctx context.Context, format string, v ...any) {
	logger.Global().WithCtx(ctx).Warnw(fmt.Sprintf(format, v...), "component", "redis")
}

// useGlobalLogger 只能在 logger 初始化之后调用，go-redis 的 logger 是进程级的。
func useGlobalLogger() {
	installLogger.Do(func() { goredis.SetLogger(redisLogger{}) })
}
