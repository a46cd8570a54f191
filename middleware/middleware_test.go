package middleware

import (
	"context"
	"mcgate/message"
	"testing"
	"time"
)

func echoHandler(ctx context.Context, req *message.ShardEnvelope) *message.ShardEnvelope {
	return &message.ShardEnvelope{
		PlayerUUID: req.PlayerUUID,
		Kind:       message.EnvelopeConnect,
		Payload:    []byte("ok"),
	}
}

func slowHandler(ctx context.Context, req *message.ShardEnvelope) *message.ShardEnvelope {
	time.Sleep(200 * time.Millisecond)
	return &message.ShardEnvelope{
		PlayerUUID: req.PlayerUUID,
		Kind:       message.EnvelopeConnect,
		Payload:    []byte("ok"),
	}
}

func TestLogging(t *testing.T) {
	handler := LoggingMiddleware()(echoHandler)

	req := &message.ShardEnvelope{PlayerUUID: [16]byte{1}}
	resp := handler(context.Background(), req)

	if resp == nil {
		t.Fatal("expect non-nil response")
	}
	if string(resp.Payload) != "ok" {
		t.Fatalf("expect payload 'ok', got '%s'", string(resp.Payload))
	}
}

func TestTimeoutPass(t *testing.T) {
	handler := TimeOutMiddleware(500 * time.Millisecond)(echoHandler)

	req := &message.ShardEnvelope{PlayerUUID: [16]byte{1}}
	resp := handler(context.Background(), req)

	if resp.Error != "" {
		t.Fatalf("expect no error, got '%s'", resp.Error)
	}
}

func TestTimeoutExceeded(t *testing.T) {
	handler := TimeOutMiddleware(50 * time.Millisecond)(slowHandler)

	req := &message.ShardEnvelope{PlayerUUID: [16]byte{1}}
	resp := handler(context.Background(), req)

	if resp.Error != "routing decision timed out" {
		t.Fatalf("expect timeout error, got '%s'", resp.Error)
	}
}

func TestRateLimit(t *testing.T) {
	// rate=1 per second, burst=2: first two pass immediately, third is rejected
	handler := RateLimitMiddleware(1, 2)(echoHandler)
	req := &message.ShardEnvelope{PlayerUUID: [16]byte{1}}

	for i := 0; i < 2; i++ {
		resp := handler(context.Background(), req)
		if resp.Error != "" {
			t.Fatalf("request %d should pass, got error: %s", i, resp.Error)
		}
	}

	resp := handler(context.Background(), req)
	if resp.Error != "rate limit exceeded" {
		t.Fatalf("request 3 should be rate limited, got: '%s'", resp.Error)
	}
}

func TestChain(t *testing.T) {
	chained := Chain(LoggingMiddleware(), TimeOutMiddleware(500*time.Millisecond))
	handler := chained(echoHandler)

	req := &message.ShardEnvelope{PlayerUUID: [16]byte{1}}
	resp := handler(context.Background(), req)

	if resp == nil {
		t.Fatal("expect non-nil response")
	}
	if resp.Error != "" {
		t.Fatalf("expect no error, got '%s'", resp.Error)
	}
}
