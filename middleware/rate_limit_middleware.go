package middleware

import (
	"context"
	"golang.org/x/time/rate"
	"mcgate/message"
)

// RateLimitMiddleware creates a rate limiter using the token bucket algorithm,
// bounding how fast new players can be routed to shards.
//
// Token bucket: tokens are added at rate r per second, up to a burst size.
// Each connect consumes one token. If the bucket is empty, the connect is
// rejected. Unlike a leaky bucket (constant drain rate), token bucket allows
// short bursts — more suitable for a wave of players joining at once.
//
// CRITICAL: the limiter is created in the OUTER closure (once per middleware creation),
// NOT in the inner handler function. If created per-request, every request would get
// a fresh full bucket, defeating the entire purpose of rate limiting.
//
// Parameters:
//   - r: token refill rate (tokens per second)
//   - burst: maximum bucket size (allows this many requests in a burst)
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst) // Shared across all requests
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.ShardEnvelope) *message.ShardEnvelope {
			if !limiter.Allow() {
				// No tokens available — reject immediately (short-circuit, don't call next)
				return &message.ShardEnvelope{
					PlayerUUID: req.PlayerUUID,
					Kind:       message.EnvelopeDisconnect,
					Error:      "rate limit exceeded",
				}
			}
			return next(ctx, req)
		}
	}
}
