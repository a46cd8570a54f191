package middleware

import (
	"context"
	"log"
	"mcgate/message"
	"time"
)

// LoggingMiddleware records the player, duration, and any errors for each
// routing decision. It captures the start time before calling next, and
// logs the elapsed time after next returns.
//
// Example output:
//
//	player: 4f9a..., duration: 42µs
//	error: shard over capacity
func LoggingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.ShardEnvelope) *message.ShardEnvelope {
			start := time.Now()

			env := next(ctx, req)

			duration := time.Since(start)
			log.Printf("player: %x, duration: %s", req.PlayerUUID, duration)
			if env.Error != "" {
				log.Printf("error: %s", env.Error)
			}
			return env
		}
	}
}
