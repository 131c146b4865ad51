package redis

import (
	"testing"

	"github.com/ennovar/demandcast/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(nil, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestCache_GetOrSet(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	calls := 0
	var result []string
	err := cache.GetOrSet(nil, "key", &result, TTLLong, func() (interface{}, error) {
		calls++
		return []string{"a", "b"}, nil
	})
	if err != nil {
		t.Fatalf("GetOrSet() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected loader to run once, ran %d times", calls)
	}
	if len(result) != 2 || result[0] != "a" {
		t.Errorf("Expected loaded value in dest, got %v", result)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "ForecastKey",
			fn:       func() string { return ForecastKey("Blazers", "SKU-1042", 7) },
			expected: "forecast:Blazers:SKU-1042:7",
		},
		{
			name:     "ModelStatusKey",
			fn:       func() string { return ModelStatusKey("artifacts/model") },
			expected: "model:status:artifacts/model",
		},
		{
			name:     "CategoryProductsKey",
			fn:       func() string { return CategoryProductsKey("Blazers") },
			expected: "products:category:Blazers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
