package storage

import (
	"context"
	"errors"
	"testing"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"plain", "https://cdn.example.com", "tournaments/1/fixtures.json", "https://cdn.example.com/tournaments/1/fixtures.json"},
		{"base with slash", "https://cdn.example.com/", "tournaments/1/fixtures.json", "https://cdn.example.com/tournaments/1/fixtures.json"},
		{"key with slash", "https://cdn.example.com/league", "/tournaments/2/fixtures.json", "https://cdn.example.com/league/tournaments/2/fixtures.json"},
		{"empty key", "https://cdn.example.com", "", ""},
		{"empty base", "", "a.json", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publicURL(tt.base, tt.key); got != tt.want {
				t.Errorf("publicURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
			}
		})
	}
}

func TestNewCloudflareR2UploaderRejectsIncompleteConfig(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccountID: "acc", BucketName: "b"})
	if !errors.Is(err, ErrR2ConfigIncomplete) {
		t.Fatalf("expected ErrR2ConfigIncomplete, got %v", err)
	}
}
