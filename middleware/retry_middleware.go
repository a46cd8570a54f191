package middleware

import (
	"context"
	"log"
	"mcgate/message"
	"strings"
	"time"
)

// RetryMiddleware retries a failed shard-connect decision, for errors that
// look like a transient dial/dispatch failure rather than a shard-side
// rejection (over capacity, bad credentials, etc.).
func RetryMiddleware(maxRetries int, baseDelay time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.ShardEnvelope) *message.ShardEnvelope {
			env := next(ctx, req)
			for i := 0; i < maxRetries; i++ {
				if env.Error == "" {
					return env // Success, return response
				}
				if strings.Contains(env.Error, "timeout") || strings.Contains(env.Error, "connection refused") {
					log.Printf("retry attempt %d for player %x due to error: %s", i+1, req.PlayerUUID, env.Error)
					time.Sleep(baseDelay * time.Duration(1<<i)) // Exponential backoff
					env = next(ctx, req)                        // Retry the connect
				} else {
					return env // Non-retryable error, return immediately
				}
			}
			return env // Return last response after retries
		}
	}
}
