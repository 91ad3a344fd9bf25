package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	youtubesvc "github.com/trezcool/darasa/services/youtube"
)

func Test_searchApi_youtube(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "quota" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
			return
		}
		fmt.Fprint(w, `{
			"items": [
				{
					"id": {"videoId": "abc123"},
					"snippet": {
						"title": "Marketing Intro",
						"description": "A first look.",
						"thumbnails": {"medium": {"url": "https://i.ytimg.com/vi/abc123/mq.jpg"}}
					}
				}
			]
		}`)
	}))
	defer upstream.Close()

	env := setup(t, upstream.URL)
	usr := createUser(t, env.usrRepo, "Awe", "awe", "awe@test.cd", "", nil, true)
	token := getToken(t, usr)

	// authentication is required
	req, rec := newRequest(http.MethodPost, "/v1/search/youtube", marshallObj(t, YoutubeSearchRequest{Query: "ai"}))
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusUnauthorized,
		wantData: marshallObj(t, errMissingToken),
	}, rec)

	// the query is required
	req, rec = newAuthRequest(http.MethodPost, "/v1/search/youtube", token, marshallObj(t, YoutubeSearchRequest{}))
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marshallObj(t, map[string]string{"query": "query is required"}),
	}, rec)

	// results are mapped down to what the frontend renders
	req, rec = newAuthRequest(http.MethodPost, "/v1/search/youtube", token, marshallObj(t, YoutubeSearchRequest{Query: "ai marketing"}))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp YoutubeSearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, youtubesvc.SearchResult{
		ID:          "abc123",
		Title:       "Marketing Intro",
		Description: "A first look.",
		Thumbnail:   "https://i.ytimg.com/vi/abc123/mq.jpg",
	}, resp.Results[0])

	// upstream failures keep their status code
	req, rec = newAuthRequest(http.MethodPost, "/v1/search/youtube", token, marshallObj(t, YoutubeSearchRequest{Query: "quota"}))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "quota exceeded"))
}

func Test_searchApi_youtube_notConfigured(t *testing.T) {
	env := setup(t) // no API key
	usr := createUser(t, env.usrRepo, "Awe", "awe", "awe@test.cd", "", nil, true)
	token := getToken(t, usr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/search/youtube", token, marshallObj(t, YoutubeSearchRequest{Query: "ai"}))
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusInternalServerError,
		wantData: marshallObj(t, httpErr{Error: "search is not configured"}),
	}, rec)
}
