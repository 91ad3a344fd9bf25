package youtubesvc

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
)

type nopLogger struct {
	std *log.Logger
}

func (l nopLogger) Debug(msg string, args ...interface{}) {}
func (l nopLogger) Info(msg string, args ...interface{})  {}
func (l nopLogger) Warn(msg string, args ...interface{})  {}
func (l nopLogger) Error(msg string, args ...interface{}) {}
func (l nopLogger) Fatal(msg string, args ...interface{}) { l.std.Fatal(msg) }

func newTestLogger() core.Logger {
	return nopLogger{std: log.New(os.Stderr, "TEST : ", log.LstdFlags)}
}

func TestService_Search(t *testing.T) {
	var gotQuery, gotKey, gotMax string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		gotMax = r.URL.Query().Get("maxResults")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "items": [
    {
      "id": {"videoId": "abc123"},
      "snippet": {
        "title": "AI for Marketers",
        "description": "An intro.",
        "thumbnails": {"medium": {"url": "https://i.ytimg.com/vi/abc123/mqdefault.jpg"}}
      }
    }
  ]
}`))
	}))
	defer srv.Close()

	conf := &core.Config{YoutubeAPIKey: "test-key"}
	svc := NewServiceWithBaseURL(newTestLogger(), conf, srv.URL)

	results, err := svc.Search(context.Background(), "ai marketing")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "abc123", results[0].ID)
	assert.Equal(t, "AI for Marketers", results[0].Title)
	assert.Equal(t, "An intro.", results[0].Description)
	assert.Equal(t, "https://i.ytimg.com/vi/abc123/mqdefault.jpg", results[0].Thumbnail)

	assert.Equal(t, "ai marketing", gotQuery)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "5", gotMax)
}

func TestService_Search_missingKey(t *testing.T) {
	svc := NewService(newTestLogger(), &core.Config{})

	_, err := svc.Search(context.Background(), "anything")
	assert.Equal(t, ErrMissingAPIKey, err)
}

func TestService_Search_upstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer srv.Close()

	svc := NewServiceWithBaseURL(newTestLogger(), &core.Config{YoutubeAPIKey: "test-key"}, srv.URL)

	_, err := svc.Search(context.Background(), "anything")
	require.Error(t, err)
	upErr, ok := err.(*UpstreamError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
	assert.Equal(t, "quota exceeded", upErr.Body)
}
