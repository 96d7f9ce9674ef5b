package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRedisCache_GetLogsConnectionErrors(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hook := test.NewLocal(logger)

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	c := newRedisCache(client, logger)
	defer c.Close()

	if _, ok := c.Get(context.Background(), "forecast:abc"); ok {
		t.Fatalf("expected miss on unreachable server")
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected connection error to be logged, got %v", entry)
	}
	if entry.Data["key"] != "forecast:abc" {
		t.Errorf("expected key field, got %v", entry.Data)
	}
}
