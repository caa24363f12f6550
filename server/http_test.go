package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jfernandes/portfolio-content/backend"
	"github.com/jfernandes/portfolio-content/content"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Notes</title>
    <link>https://blog.example.com</link>
    <item>
      <guid>https://blog.example.com/p/1</guid>
      <title>Terraform Modules In Practice</title>
      <link>https://blog.example.com/posts/terraform-modules</link>
      <pubDate>Tue, 12 Mar 2024 09:00:00 GMT</pubDate>
      <description>Structuring Terraform modules for reuse.</description>
    </item>
  </channel>
</rss>`

// pngBytes is the PNG file signature padded with filler, enough for content
// sniffing to report image/png.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()

	badgeUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	t.Cleanup(badgeUpstream.Close)

	feedUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testFeed))
	}))
	t.Cleanup(feedUpstream.Close)

	cfg := Config{
		DataDir:       t.TempDir(),
		BadgeIdentity: "test-user",
		BadgeBaseURL:  badgeUpstream.URL,
		FeedURL:       feedUpstream.URL,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAboutDefaultsThenUpdate(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/about", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc content.AboutDocument
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	require.NotEmpty(t, doc.SectionTitle)

	doc.Subtitle = "Updated subtitle"
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	rec = doRequest(s, httptest.NewRequest(http.MethodPost, "/api/about", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/api/about", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	require.Equal(t, "Updated subtitle", doc.Subtitle)
}

func TestAboutValidationFailure(t *testing.T) {
	s := newTestServer(t, nil)

	doc := content.DefaultAbout()
	doc.Subtitle = ""
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	rec := doRequest(s, httptest.NewRequest(http.MethodPost, "/api/about", bytes.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAboutMalformedBody(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, httptest.NewRequest(http.MethodPost, "/api/about", strings.NewReader("{not json")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExperienceSyncValidation(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, httptest.NewRequest(http.MethodPost, "/api/experience/sync", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, httptest.NewRequest(http.MethodPost, "/api/experience/sync", strings.NewReader(`{"experiences": []}`)))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCronRefreshRequiresSecret(t *testing.T) {
	s := newTestServer(t, func(cfg *Config) {
		cfg.CronSecret = "cron-secret-1"
	})

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/cron/refresh", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/cron/refresh", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = doRequest(s, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/cron/refresh", nil)
	req.Header.Set("Authorization", "Bearer cron-secret-1")
	rec = doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Results map[string]struct {
			Success bool `json:"success"`
			Count   int  `json:"count"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.True(t, body.Success)
	require.True(t, body.Results["certifications"].Success)
	require.True(t, body.Results["projects"].Success)
	require.Equal(t, 1, body.Results["projects"].Count)
}

func TestCronRefreshPartialFailure(t *testing.T) {
	s := newTestServer(t, func(cfg *Config) {
		cfg.FeedURL = "http://127.0.0.1:1/feed.xml"
	})

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/cron/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results map[string]struct {
			Success bool `json:"success"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.True(t, body.Results["certifications"].Success)
	require.False(t, body.Results["projects"].Success)
}

func TestAdminTokenProtectsMutations(t *testing.T) {
	s := newTestServer(t, func(cfg *Config) {
		cfg.AdminToken = "admin-token-1"
	})

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, httptest.NewRequest(http.MethodPost, "/api/projects/refresh", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/projects/refresh", nil)
	req.Header.Set("Authorization", "Bearer admin-token-1")
	rec = doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestProfilePictureUploadAndServe(t *testing.T) {
	s := newTestServer(t, nil)

	body, contentType := multipartBody(t, "file", "avatar.png", pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/profile-picture", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool       `json:"success"`
		Data    UploadInfo `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Success)
	require.Equal(t, "image/png", resp.Data.ContentType)
	require.True(t, strings.HasPrefix(resp.Data.FileName, "profile-"))
	require.True(t, strings.HasSuffix(resp.Data.FileName, ".png"))

	// Newest upload is reported
	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/api/profile-picture", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var current UploadInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&current))
	require.Equal(t, resp.Data.FileName, current.FileName)

	// And served back byte for byte
	rec = doRequest(s, httptest.NewRequest(http.MethodGet, resp.Data.URL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, pngBytes, rec.Body.Bytes())
}

func TestProfilePictureRejectsWrongType(t *testing.T) {
	s := newTestServer(t, nil)

	body, contentType := multipartBody(t, "file", "notes.txt", []byte("plain text, not an image"))
	req := httptest.NewRequest(http.MethodPost, "/api/profile-picture", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfilePictureMissingField(t *testing.T) {
	s := newTestServer(t, nil)

	body, contentType := multipartBody(t, "wrong-field", "avatar.png", pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/profile-picture", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfilePictureNoneUploaded(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/profile-picture", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadStoreRejectsOversize(t *testing.T) {
	b, err := backend.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	u := newUploadStore(b, nil)

	big := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, MaxUploadSize)...)
	_, err = u.Save(context.Background(), big)
	require.ErrorIs(t, err, ErrUploadRejected)
}

func TestUploadStoreTraversalSafe(t *testing.T) {
	b, err := backend.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	u := newUploadStore(b, nil)

	for _, name := range []string{"../about.json", "profile-x/../../about.json", "current.json", ""} {
		_, _, err := u.Open(context.Background(), name)
		require.ErrorIs(t, err, backend.ErrNotFound, "name %q must not be served", name)
	}
}
