package session

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test keys.
		keys, _ := client.Keys(ctx, "session:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestSessionCreateAndGet(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, 0)
	ctx := context.Background()

	data := &Data{
		UserID: uuid.New(),
		Email:  "test@session.local",
		Name:   "Test User",
		Role:   "admin",
	}

	token, err := store.Create(ctx, data)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != 2*tokenLength {
		t.Errorf("token length: got %d, want %d", len(token), 2*tokenLength)
	}

	retrieved, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected session data, got nil")
	}
	if retrieved.Email != "test@session.local" {
		t.Errorf("email: got %q, want %q", retrieved.Email, "test@session.local")
	}
	if retrieved.UserID != data.UserID {
		t.Errorf("userID: got %s, want %s", retrieved.UserID, data.UserID)
	}
	if retrieved.Role != "admin" {
		t.Errorf("role: got %q, want %q", retrieved.Role, "admin")
	}
	if retrieved.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	ttl := client.TTL(ctx, keyPrefix+token).Val()
	if ttl <= 0 || ttl > DefaultTTL {
		t.Errorf("ttl: got %v, want (0, %v]", ttl, DefaultTTL)
	}
}

func TestSessionGetUnknownToken(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, time.Minute)

	for _, token := range []string{"", "does-not-exist"} {
		data, err := store.Get(context.Background(), token)
		if err != nil {
			t.Errorf("Get(%q): %v", token, err)
		}
		if data != nil {
			t.Errorf("Get(%q): expected nil session", token)
		}
	}
}

func TestSessionDestroy(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, time.Minute)
	ctx := context.Background()

	token, err := store.Create(ctx, &Data{UserID: uuid.New(), Role: "user"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Destroy(ctx, token); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	data, _ := store.Get(ctx, token)
	if data != nil {
		t.Error("expected nil session after destroy")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := TokenFromRequest(req); got != tt.want {
			t.Errorf("TokenFromRequest(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestGenerateTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := generateToken()
		if err != nil {
			t.Fatalf("generateToken: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = true
	}
}
