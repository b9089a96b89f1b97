package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/image/tiff"

	"github.com/neuroscope/go-neuroscope/pkg/imageio"
)

// A soma at the origin and an axon segment from y=40 to y=60 that does not touch it
const cellSWC = `# Name: Test Cell
1 1 0 0 0 10 -1
2 2 0 40 0 2 -1
3 2 0 60 0 2 2
`

// 65 columns put the centre of column 32 on the optical axis
const captureQuery = "kind=segmentation&width=65&height=48&fov=200"

func newTestServer(t *testing.T, dir string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(Config{MorphologyDir: dir, Workers: 2}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Expected JSON error body: %v", err)
	}
	if body["error"] == "" {
		t.Error("Expected non-empty error message")
	}
	return body["error"]
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestTissue(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/tissue?width=32&height=16&coverage=10&maxDensity=1")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Errorf("Expected 32x16 image, got %v", img.Bounds())
	}
	// Saturated coverage drives every pixel to the density bound
	gray := color.GrayModel.Convert(img.At(5, 5)).(color.Gray)
	if gray.Y != 255 {
		t.Errorf("Expected saturated pixel, got %d", gray.Y)
	}
}

func TestTissue_InvalidParams(t *testing.T) {
	ts := newTestServer(t, "")

	tests := []struct {
		name  string
		query string
	}{
		{"zero width", "width=0"},
		{"huge height", "height=100000"},
		{"not a number", "width=abc"},
		{"negative fov", "fov=-1"},
		{"density above one", "maxDensity=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/tissue?" + tt.query)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", resp.StatusCode)
			}
			decodeError(t, resp)
		})
	}
}

func TestCapture_Segmentation(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Post(ts.URL+"/api/capture?"+captureQuery, "text/plain", strings.NewReader(cellSWC))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if img.Bounds().Dx() != 65 || img.Bounds().Dy() != 48 {
		t.Fatalf("Expected 65x48 image, got %v", img.Bounds())
	}

	tests := []struct {
		name     string
		x, y     int
		expected color.RGBA
	}{
		{"soma at centre", 32, 24, color.RGBA{R: 255, A: 255}},
		{"axon above soma", 32, 36, color.RGBA{G: 255, A: 255}},
		{"background corner", 0, 0, color.RGBA{B: 255, A: 255}},
	}
	for _, tt := range tests {
		if got := rgbaAt(img, tt.x, tt.y); got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, got)
		}
	}
}

func TestCapture_Formats(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Post(ts.URL+"/api/capture?kind=fluorescence&width=20&height=10&format=tiff", "text/plain", strings.NewReader(cellSWC))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/tiff" {
		t.Errorf("Expected image/tiff, got %q", ct)
	}
	img, err := tiff.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Failed to decode TIFF: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("Expected 20x10 image, got %v", img.Bounds())
	}
}

func TestCapture_Errors(t *testing.T) {
	ts := newTestServer(t, "")

	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{"unknown kind", "kind=confocal", cellSWC, http.StatusBadRequest},
		{"unknown format", "format=gif", cellSWC, http.StatusBadRequest},
		{"bad position", "px=north", cellSWC, http.StatusBadRequest},
		{"inverted emission", "minEmission=0.9&maxEmission=0.1", cellSWC, http.StatusBadRequest},
		{"malformed line", "", "1 1 0 0 0 10\n", http.StatusUnprocessableEntity},
		{"empty body", "", "# only a comment\n", http.StatusUnprocessableEntity},
		{"nan fov", "fov=NaN", cellSWC, http.StatusBadRequest},
		{"infinite emission", "maxEmission=Inf", cellSWC, http.StatusBadRequest},
		{"negative radius", "", "1 1 0 0 0 -0.5 -1\n", http.StatusUnprocessableEntity},
		{"too many slices", "kind=multislice&sliceDistance=0.001", cellSWC, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/capture?width=8&height=8&"+tt.query, "text/plain", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
			decodeError(t, resp)
		})
	}
}

func TestCapture_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, "")
	resp, err := http.Get(ts.URL + "/api/capture")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", resp.StatusCode)
	}
}

func TestInspect(t *testing.T) {
	ts := newTestServer(t, "")

	tests := []struct {
		name        string
		x, y        int
		hit         bool
		part        string
		neuriteType string
	}{
		{"soma", 32, 24, true, "soma", ""},
		{"axon", 32, 36, true, "neurite", "axon"},
		{"background", 0, 0, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := ts.URL + "/api/inspect?" + captureQuery + "&x=" + strconv.Itoa(tt.x) + "&y=" + strconv.Itoa(tt.y)
			resp, err := http.Post(url, "text/plain", strings.NewReader(cellSWC))
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", resp.StatusCode)
			}
			var got InspectResponse
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if got.Hit != tt.hit || got.Part != tt.part || got.NeuriteType != tt.neuriteType {
				t.Errorf("Expected hit=%v part=%q type=%q, got %+v", tt.hit, tt.part, tt.neuriteType, got)
			}
			if got.Density < 0 || got.Density > 0.1 {
				t.Errorf("Expected density within the default bound, got %g", got.Density)
			}
		})
	}
}

func TestInspect_SomaDistance(t *testing.T) {
	ts := newTestServer(t, "")
	resp, err := http.Post(ts.URL+"/api/inspect?"+captureQuery+"&x=32&y=24", "text/plain", strings.NewReader(cellSWC))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var got InspectResponse
	json.NewDecoder(resp.Body).Decode(&got)

	// The ray starts at the default elevation of 1000 and meets the top of the radius 10 soma
	if got.Distance < 989.5 || got.Distance > 991 {
		t.Errorf("Expected distance near 990, got %g", got.Distance)
	}
	if got.Point[2] < 9 || got.Point[2] > 10 {
		t.Errorf("Expected hit point on the soma top, got %v", got.Point)
	}
}

func TestInspect_OutOfBounds(t *testing.T) {
	ts := newTestServer(t, "")
	resp, err := http.Post(ts.URL+"/api/inspect?width=10&height=10&x=10", "text/plain", strings.NewReader(cellSWC))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestMorphologies(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"cell.swc":    cellSWC,
		"pyramid.swc": "# Group: Cortex\n1 1 0 0 0 5 -1\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	ts := newTestServer(t, dir)

	resp, err := http.Get(ts.URL + "/api/morphologies")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Groups []struct {
			Name         string `json:"name"`
			Morphologies []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"morphologies"`
		} `json:"groups"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(body.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %+v", body.Groups)
	}
	if body.Groups[0].Name != "Morphologies" || body.Groups[1].Name != "Cortex" {
		t.Errorf("Expected default group first, got %q, %q", body.Groups[0].Name, body.Groups[1].Name)
	}
	if got := body.Groups[0].Morphologies[0]; got.ID != "cell" || got.Name != "Test Cell" {
		t.Errorf("Expected cell/Test Cell, got %+v", got)
	}
}

func TestMorphologies_NoDirectory(t *testing.T) {
	ts := newTestServer(t, "")
	resp, err := http.Get(ts.URL + "/api/morphologies")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if strings.TrimSpace(buf.String()) != `{"groups":[]}` {
		t.Errorf("Expected empty group list, got %s", buf.String())
	}
}

func TestMorphologyCapture(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cell.swc"), []byte(cellSWC), 0o644); err != nil {
		t.Fatalf("Failed to write morphology: %v", err)
	}
	ts := newTestServer(t, dir)

	resp, err := http.Get(ts.URL + "/api/morphologies/cell/capture?" + captureQuery)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if got := rgbaAt(img, 32, 24); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("Expected soma label at centre, got %v", got)
	}

	missing, err := http.Get(ts.URL + "/api/morphologies/nope/capture")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", missing.StatusCode)
	}
}

// brokenWriter accepts headers but fails every body write
type brokenWriter struct {
	header http.Header
	status int
}

func (w *brokenWriter) Header() http.Header { return w.header }

func (w *brokenWriter) WriteHeader(status int) { w.status = status }

func (w *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteImage_LogsWriteFailure(t *testing.T) {
	var logs bytes.Buffer
	s := New(Config{Logger: log.New(&logs)})

	w := &brokenWriter{header: http.Header{}}
	r := httptest.NewRequest(http.MethodGet, "/api/tissue", nil)
	s.writeImage(w, r, image.NewGray(image.Rect(0, 0, 4, 4)), imageio.FormatPNG)

	if w.status != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.status)
	}
	if !strings.Contains(logs.String(), "failed to write image") || !strings.Contains(logs.String(), "connection reset") {
		t.Errorf("Expected the write failure to be logged, got %q", logs.String())
	}
}

func TestTissue_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tissue?width=64&height=64", nil).WithContext(ctx)
	New(Config{}).Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d for a cancelled render, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"param", errInvalidParam, http.StatusBadRequest},
		{"not found", errNotFound, http.StatusNotFound},
		{"empty", errEmptyBody, http.StatusUnprocessableEntity},
		{"too large", &http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down")
	}
}

