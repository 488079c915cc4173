package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotJSON = `{
  "header": {"race_id": "RACE_ID", "track": "SAR", "race_number": 1, "surface": "dirt", "distance_furlongs": 6},
  "horses": [
    {"program_number": "1", "name": "Alpha", "morning_line": "2-1"},
    {"program_number": "2", "name": "Bravo", "morning_line": "3-1"}
  ],
  "result": {"finish_order": ["2", "1"]}
}`

func writeSnapshot(t *testing.T, dir, name, raceID string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := []byte(replaceRaceID(raceID))
	require.NoError(t, os.WriteFile(path, body, 0o600))
	return path
}

func replaceRaceID(raceID string) string {
	return strings.ReplaceAll(snapshotJSON, "RACE_ID", raceID)
}

func fastClientConfig() HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 2 * time.Millisecond
	cfg.RateLimit = 0
	return cfg
}

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "race.json", "R1")

	snapshot, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "R1", snapshot.Header.RaceID)
	assert.Len(t, snapshot.Horses, 2)
	require.NotNil(t, snapshot.Result)
	assert.Equal(t, "2", snapshot.Result.Winner())
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSnapshot(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = LoadSnapshot(bad)
	assert.ErrorIs(t, err, ErrInvalidData)

	var srcErr SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, ErrCodeInvalidData, srcErr.Code)
}

func TestDirectorySourceSortedByName(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "b.json", "R2")
	writeSnapshot(t, dir, "a.json", "R1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	races, err := NewDirectorySource(dir, nil).Races(context.Background())
	require.NoError(t, err)
	require.Len(t, races, 2)
	assert.Equal(t, "R1", races[0].Header.RaceID)
	assert.Equal(t, "R2", races[1].Header.RaceID)
}

func TestDirectorySourceMissingDir(t *testing.T) {
	_, err := NewDirectorySource(filepath.Join(t.TempDir(), "nope"), nil).Races(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectorySourceCancelled(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "a.json", "R1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirectorySource(dir, nil).Races(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/r1":
			_, _ = w.Write([]byte(replaceRaceID("R1")))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	client := NewRateLimitedHTTPClient(fastClientConfig(), nil)
	src := NewHTTPSource(client, server.URL+"/r1")

	races, err := src.Races(context.Background())
	require.NoError(t, err)
	require.Len(t, races, 1)
	assert.Equal(t, "R1", races[0].Header.RaceID)

	_, err = src.Fetch(context.Background(), server.URL+"/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Fetch(context.Background(), server.URL+"/other")
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(replaceRaceID("R9")))
	}))
	defer server.Close()

	src := NewHTTPSource(NewRateLimitedHTTPClient(fastClientConfig(), nil), server.URL)
	races, err := src.Races(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "R9", races[0].Header.RaceID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPClientCircuitBreaker(t *testing.T) {
	cfg := fastClientConfig()
	cfg.MaxRetries = 0
	cfg.CircuitBreakerMax = 2
	client := NewRateLimitedHTTPClient(cfg, nil)

	// Nothing listens on this address
	url := "http://127.0.0.1:1/snapshot"
	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), url)
		require.Error(t, err)
	}
	assert.True(t, client.IsOpen())

	_, err := client.Get(context.Background(), url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestNewSource(t *testing.T) {
	dir := t.TempDir()
	path := writeSnapshot(t, dir, "a.json", "R1")

	tests := []struct {
		name     string
		location string
		want     SourceType
		wantErr  bool
	}{
		{"file", path, FileSourceType, false},
		{"directory", dir, DirectorySourceType, false},
		{"url", "https://example.com/race.json", HTTPSourceType, false},
		{"missing", filepath.Join(dir, "missing"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectType(tt.location)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			src, err := NewSource(tt.location, nil)
			require.NoError(t, err)
			assert.Equal(t, string(tt.want), src.Name())
		})
	}
}
