package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestNewClient_SelectsDatabaseFromURL(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewClient(ctx, "redis://"+s.Addr()+"/2")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if got := client.Options().DB; got != 2 {
		t.Errorf("DB = %d, want 2", got)
	}
	if got := client.Options().ClientName; got != "finance-ledger" {
		t.Errorf("ClientName = %q, want finance-ledger", got)
	}

	if err := client.Set(ctx, "gl:code:1001", "acc-1", 0).Err(); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, err := s.DB(2).Get("gl:code:1001"); err != nil || got != "acc-1" {
		t.Errorf("value in db 2 = %q (%v), want acc-1", got, err)
	}
}

func TestNewClient_Errors(t *testing.T) {
	down := miniredis.RunT(t)
	downURL := "redis://" + down.Addr()
	down.Close()

	tests := []struct {
		name string
		url  string
	}{
		{"unparseable url", "://bad-url"},
		{"wrong scheme", "http://localhost:6379"},
		{"server down", downURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.url)
			if err == nil {
				_ = client.Close()
				t.Fatalf("expected error for %s", tt.url)
			}
		})
	}
}
