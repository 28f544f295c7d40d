package upscale

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
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

	"github.com/example/studybot/internal/logger"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// fakeReplicate serves a prediction that needs two polls before it succeeds
func fakeReplicate(t *testing.T, outputPNG []byte) *httptest.Server {
	t.Helper()
	var polls atomic.Int32
	var srv *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer r8-token", r.Header.Get("Authorization"))

		var req PredictionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModelVersion, req.Version)
		assert.EqualValues(t, Scale, req.Input["scale"])
		assert.True(t, strings.HasPrefix(req.Input["image"].(string), "data:image/png;base64,"))

		json.NewEncoder(w).Encode(map[string]any{
			"id":     "p1",
			"status": "starting",
			"urls":   map[string]string{"get": srv.URL + "/predictions/p1"},
		})
	})
	mux.HandleFunc("/predictions/p1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 2 {
			json.NewEncoder(w).Encode(map[string]any{
				"id": "p1", "status": "processing",
				"urls": map[string]string{"get": srv.URL + "/predictions/p1"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "p1", "status": "succeeded", "output": srv.URL + "/out.png",
		})
	})
	mux.HandleFunc("/out.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(outputPNG)
	})
	mux.HandleFunc("/in.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, 2, 3))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{Token: "r8-token", BaseURL: baseURL, PollInterval: time.Millisecond})
	require.NoError(t, err)
	return c
}

func TestClientUpscalePolls(t *testing.T) {
	srv := fakeReplicate(t, pngBytes(t, 8, 12))
	c := newTestClient(t, srv.URL)

	path := filepath.Join(t.TempDir(), "in.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 2, 3), 0644))

	url, err := c.Upscale(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/out.png", url)
}

func TestClientUpscaleFailedPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"p2","status":"failed","error":"CUDA out of memory"}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	path := filepath.Join(t.TempDir(), "in.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 1, 1), 0644))

	_, err := c.Upscale(context.Background(), path)
	assert.ErrorIs(t, err, ErrPredictionFailed)
}

func TestPredictionOutputList(t *testing.T) {
	p := Prediction{Output: json.RawMessage(`["a","b"]`)}
	assert.Equal(t, "b", p.outputURL())
}

func TestServiceProcessCleansUp(t *testing.T) {
	srv := fakeReplicate(t, pngBytes(t, 8, 12))
	tmp := t.TempDir()
	svc := NewService(newTestClient(t, srv.URL), tmp, logger.NewNop())

	res, err := svc.Process(context.Background(), srv.URL+"/in.png")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 2, Height: 3}, res.Before)
	assert.Equal(t, Size{Width: 8, Height: 12}, res.After)
	assert.NotEmpty(t, res.Image)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingUpscaler struct{}

func (failingUpscaler) Upscale(context.Context, string) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestServiceProcessCleansUpOnFailure(t *testing.T) {
	srv := fakeReplicate(t, nil)
	tmp := t.TempDir()
	svc := NewService(failingUpscaler{}, tmp, logger.NewNop())

	_, err := svc.Process(context.Background(), srv.URL+"/in.png")
	require.Error(t, err)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDimensionsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))
	assert.Equal(t, Size{}, dimensions(path))
}

func TestDownloadWritesWholeFile(t *testing.T) {
	img := pngBytes(t, 7, 5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(img)
	}))
	t.Cleanup(srv.Close)

	svc := NewService(failingUpscaler{}, t.TempDir(), logger.NewNop())
	path := filepath.Join(t.TempDir(), "img.png")

	require.NoError(t, svc.download(context.Background(), srv.URL+"/img.png", path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, img, got)
	assert.Equal(t, Size{Width: 7, Height: 5}, dimensions(path))

	err = svc.download(context.Background(), srv.URL+"/missing.png", filepath.Join(t.TempDir(), "x.png"))
	assert.ErrorContains(t, err, "unexpected status 404")

	err = svc.download(context.Background(), srv.URL+"/img.png", filepath.Join(t.TempDir(), "no", "such", "dir.png"))
	assert.Error(t, err)
}
