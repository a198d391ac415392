package cache

import (
	"context"
	"testing"
	"time"

	"stream-earn-go/internal/models"
)

func TestUnlockCache_Key(t *testing.T) {
	tests := []struct {
		prefix string
		id     int64
		want   string
	}{
		{"", 42, "stream-earn:unlock:42"},
		{"staging", 7, "staging:unlock:7"},
	}

	for _, tt := range tests {
		if got := NewUnlockCache(nil, tt.prefix).key(tt.id); got != tt.want {
			t.Errorf("Expected key %q, got %q", tt.want, got)
		}
	}
}

func TestUnlockCache_NilClientIsAMiss(t *testing.T) {
	c := NewUnlockCache(nil, "")
	ctx := context.Background()

	if err := c.Set(ctx, 1, time.Now().Add(time.Minute), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok, err := c.Get(ctx, 1); ok || err != nil {
		t.Errorf("Expected miss without redis, got ok=%v err=%v", ok, err)
	}
}

func TestDial_EmptyAddrDisablesCache(t *testing.T) {
	client, err := Dial(models.RedisConfig{})
	if err != nil || client != nil {
		t.Errorf("Expected nil client and no error, got %v, %v", client, err)
	}
}
