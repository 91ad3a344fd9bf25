package youtubesvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxResults     = 5
)

var ErrMissingAPIKey = errors.New("youtube API key is not configured")

// UpstreamError carries the status returned by the YouTube API so callers
// can surface it instead of a blanket 500.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("youtube API returned %d: %s", e.StatusCode, e.Body)
}

// SearchResult is a single video hit, trimmed down to what the frontend renders.
type SearchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

type Service struct {
	key     string
	baseURL string
	client  *http.Client
	logger  core.Logger
}

func NewService(logger core.Logger, conf *core.Config) *Service {
	return &Service{
		key:     conf.YoutubeAPIKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// NewServiceWithBaseURL points the service at a custom API host; test helper.
func NewServiceWithBaseURL(logger core.Logger, conf *core.Config, baseURL string) *Service {
	svc := NewService(logger, conf)
	svc.baseURL = baseURL
	return svc
}

// searchResponse mirrors the YouTube Data API v3 search payload.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Thumbnails  struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search queries the YouTube Data API for videos matching `query`.
func (svc *Service) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if svc.key == "" {
		return nil, ErrMissingAPIKey
	}

	q := make(url.Values)
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("maxResults", fmt.Sprintf("%d", maxResults))
	q.Set("q", query)
	q.Set("key", svc.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building youtube request")
	}

	res, err := svc.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calling youtube API")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&body)
		return nil, &UpstreamError{StatusCode: res.StatusCode, Body: body.Error.Message}
	}

	var payload searchResponse
	if err = json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decoding youtube response")
	}

	results := make([]SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		results = append(results, SearchResult{
			ID:          item.ID.VideoID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Thumbnail:   item.Snippet.Thumbnails.Medium.URL,
		})
	}
	return results, nil
}
