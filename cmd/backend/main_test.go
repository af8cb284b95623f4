package main

import (
	"testing"
	"time"
)

func TestGetenvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		def      string
		envValue string
		want     string
	}{
		{
			name:     "env var set",
			key:      "TEST_VAR_SET",
			def:      "default",
			envValue: "custom",
			want:     "custom",
		},
		{
			name:     "env var empty",
			key:      "TEST_VAR_EMPTY",
			def:      "default",
			envValue: "",
			want:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)
			got := getenvDefault(tt.key, tt.def)
			if got != tt.want {
				t.Errorf("getenvDefault(%q, %q) = %q, want %q", tt.key, tt.def, got, tt.want)
			}
		})
	}
}

func TestTokenTTL(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"12h", 12 * time.Hour},
		{"30m", 30 * time.Minute},
		{"garbage", 0},
	}

	for _, tt := range tests {
		t.Setenv("AUTH_TOKEN_TTL", tt.value)
		if got := tokenTTL(); got != tt.want {
			t.Errorf("tokenTTL() with %q = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestMaxUploadBytes(t *testing.T) {
	tests := []struct {
		value string
		want  int64
	}{
		{"", 0},
		{"1048576", 1048576},
		{"garbage", 0},
	}

	for _, tt := range tests {
		t.Setenv("MAX_UPLOAD_BYTES", tt.value)
		if got := maxUploadBytes(); got != tt.want {
			t.Errorf("maxUploadBytes() with %q = %d, want %d", tt.value, got, tt.want)
		}
	}
}
