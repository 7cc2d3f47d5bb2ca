package model

import (
	"testing"
	"time"
)

func TestClassSessionIsValid(t *testing.T) {
	expires := time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC)
	s := ClassSession{ExpiresAt: expires}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before expiry", expires.Add(-4 * time.Minute), true},
		{"one second before", expires.Add(-time.Second), true},
		{"exactly at expiry", expires, true},
		{"one second after", expires.Add(time.Second), false},
		{"long after", expires.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsValid(tt.now); got != tt.want {
				t.Errorf("IsValid(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
