package keyset

import (
	"net/http"
	"testing"
	"time"
)

func TestExpiresAt(t *testing.T) {
	sent := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expiresDate := sent.Add(2 * time.Hour).Format(http.TimeFormat)

	tests := []struct {
		name      string
		header    http.Header
		want      time.Time
		cacheable bool
	}{
		{
			name:      "max-age",
			header:    http.Header{"Cache-Control": {"public, max-age=3600"}},
			want:      sent.Add(time.Hour),
			cacheable: true,
		},
		{
			name:      "max-age minus age",
			header:    http.Header{"Cache-Control": {"max-age=3600"}, "Age": {"600"}},
			want:      sent.Add(50 * time.Minute),
			cacheable: true,
		},
		{
			name:      "max-age wins over expires",
			header:    http.Header{"Cache-Control": {"max-age=60"}, "Expires": {expiresDate}},
			want:      sent.Add(time.Minute),
			cacheable: true,
		},
		{
			name:      "expires",
			header:    http.Header{"Expires": {expiresDate}},
			want:      sent.Add(2 * time.Hour),
			cacheable: true,
		},
		{
			name:      "cache-control without max-age falls back to expires",
			header:    http.Header{"Cache-Control": {"public"}, "Expires": {expiresDate}},
			want:      sent.Add(2 * time.Hour),
			cacheable: true,
		},
		{
			name:      "max-age zero is stale at once",
			header:    http.Header{"Cache-Control": {"max-age=0"}},
			want:      sent,
			cacheable: true,
		},
		{
			name:   "no headers",
			header: http.Header{},
		},
		{
			name:   "no-store",
			header: http.Header{"Cache-Control": {"no-store, max-age=3600"}},
		},
		{
			name:   "no-cache",
			header: http.Header{"Cache-Control": {"no-cache"}, "Expires": {expiresDate}},
		},
		{
			name:   "invalid max-age",
			header: http.Header{"Cache-Control": {"max-age=soon"}},
		},
		{
			name:   "invalid expires",
			header: http.Header{"Expires": {"0"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := expiresAt(tt.header, sent)
			if ok != tt.cacheable {
				t.Fatalf("expected cacheable=%v but got %v", tt.cacheable, ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Fatalf("expected expiry %s but got %s", tt.want, got)
			}
		})
	}
}
