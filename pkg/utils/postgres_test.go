package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	got := PostgresPoolConfig{}.withDefaults()
	if got.MaxOpenConns != 25 || got.MaxIdleConns != 25 {
		t.Fatalf("unexpected pool sizes: %+v", got)
	}
	if got.ConnectAttempts != 1 {
		t.Fatalf("expected single connect attempt by default, got %d", got.ConnectAttempts)
	}
	if got.PingTimeout != 5*time.Second {
		t.Fatalf("expected 5s ping timeout, got %s", got.PingTimeout)
	}
}

func TestPostgresPoolConfig_KeepsExplicitValues(t *testing.T) {
	got := PostgresPoolConfig{MaxOpenConns: 3, ConnectAttempts: 7, RetryDelay: time.Second}.withDefaults()
	if got.MaxOpenConns != 3 || got.ConnectAttempts != 7 || got.RetryDelay != time.Second {
		t.Fatalf("explicit values overwritten: %+v", got)
	}
}
