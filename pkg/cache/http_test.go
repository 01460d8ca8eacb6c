package cache

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	now := time.Now()
	header := http.Header{
		"Content-Type": []string{"application/json"},
		"Cmr-Hits":     []string{"42"},
	}
	entry := NewEntry(http.StatusOK, header, []byte(`{"hits":42}`), time.Minute, now)

	require.NotNil(t, entry)
	assert.Equal(t, http.StatusOK, entry.Status)
	assert.Equal(t, `{"hits":42}`, string(entry.Body))
	assert.Equal(t, 42, entry.Hits)
	assert.Equal(t, now, entry.StoredAt)
	assert.Equal(t, time.Minute, entry.Remaining(now))

	// entry headers are a copy
	header.Set("Content-Type", "text/plain")
	assert.Equal(t, "application/json", entry.Header.Get("Content-Type"))
}

func TestNewEntry_NoHitsHeader(t *testing.T) {
	entry := NewEntry(http.StatusOK, http.Header{}, []byte(`[]`), time.Minute, time.Now())
	assert.Equal(t, -1, entry.Hits)
}

func TestExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		header http.Header
		ttl    time.Duration
		want   time.Time
	}{
		{
			name:   "valid expires header",
			header: http.Header{"Expires": []string{now.Add(time.Hour).Format(http.TimeFormat)}},
			ttl:    time.Minute,
			want:   now.Add(time.Hour),
		},
		{
			name:   "no freshness headers uses ttl",
			header: http.Header{},
			ttl:    time.Minute,
			want:   now.Add(time.Minute),
		},
		{
			name:   "zero ttl uses default",
			header: http.Header{},
			want:   now.Add(DefaultTTL),
		},
		{
			name:   "invalid expires header",
			header: http.Header{"Expires": []string{"not a valid date"}},
			ttl:    time.Minute,
			want:   now.Add(time.Minute),
		},
		{
			name:   "past expires header",
			header: http.Header{"Expires": []string{now.Add(-time.Hour).Format(http.TimeFormat)}},
			ttl:    time.Minute,
			want:   now,
		},
		{
			name: "max-age wins over expires",
			header: http.Header{
				"Cache-Control": []string{"public, max-age=30"},
				"Expires":       []string{now.Add(time.Hour).Format(http.TimeFormat)},
			},
			ttl:  time.Minute,
			want: now.Add(30 * time.Second),
		},
		{
			name:   "no-store expires immediately",
			header: http.Header{"Cache-Control": []string{"No-Store"}},
			ttl:    time.Minute,
			want:   now,
		},
		{
			name:   "malformed max-age is ignored",
			header: http.Header{"Cache-Control": []string{"max-age=soon"}},
			ttl:    time.Minute,
			want:   now.Add(time.Minute),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expiry(tt.header, tt.ttl, now))
		})
	}
}
