package web_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acgh213/reelfolio/internal/config"
)

func TestContent_SaveAndRead(t *testing.T) {
	env := newTestServer(t)
	c := env.client(t, "203.0.113.20")
	c.mustLogin()

	videos := []map[string]string{{
		"id":          "1",
		"title":       "Harbour at dawn",
		"thumbnail":   "/videos/thumbnails/harbour.jpg",
		"videoUrl":    "/videos/harbour.mp4",
		"orientation": "horizontal",
	}}
	rr := c.sendJSON(http.MethodPost, "/api/admin/content", map[string]any{"type": "videos", "data": videos})
	if rr.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	onDisk, err := os.ReadFile(filepath.Join(env.cfg.ContentDir, "videos.json"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(onDisk), "\n  {") {
		t.Fatalf("expected indented JSON, got %s", onDisk)
	}

	rr = c.get("/api/admin/content?type=videos")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rr.Code)
	}
	var got []map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0]["title"] != "Harbour at dawn" {
		t.Fatalf("unexpected content %v", got)
	}

	// The public page picks up the write without a restart.
	if !strings.Contains(c.get("/").Body.String(), "Harbour at dawn") {
		t.Fatal("home page should show the saved video")
	}

	if rr := c.get("/adminpanel/dashboard/videos"); !strings.Contains(rr.Body.String(), "Harbour at dawn") {
		t.Fatal("section editor should show the current JSON")
	}
}

func TestContent_Errors(t *testing.T) {
	env := newTestServer(t)
	c := env.client(t, "203.0.113.21")
	c.mustLogin()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing type", http.MethodGet, "/api/admin/content", nil, http.StatusBadRequest},
		{"unknown type", http.MethodGet, "/api/admin/content?type=secrets", nil, http.StatusBadRequest},
		{"not saved yet", http.MethodGet, "/api/admin/content?type=services", nil, http.StatusNotFound},
		{"no data", http.MethodPost, "/api/admin/content", map[string]any{"type": "videos"}, http.StatusBadRequest},
		{"unknown save type", http.MethodPost, "/api/admin/content", map[string]any{"type": "secrets", "data": []int{}}, http.StatusBadRequest},
		{"wrong shape", http.MethodPost, "/api/admin/content", map[string]any{"type": "contact", "data": []int{1}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var code int
			if tt.method == http.MethodGet {
				code = c.get(tt.path).Code
			} else {
				code = c.sendJSON(tt.method, tt.path, tt.body).Code
			}
			if code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, code)
			}
		})
	}
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUpload_StoresAndServesFile(t *testing.T) {
	env := newTestServer(t)
	c := env.client(t, "203.0.113.22")
	c.mustLogin()

	body, ct := multipartUpload(t, map[string]string{"folder": "videos", "customName": "show reel"},
		"My Reel.mp4", "video/mp4", []byte("fake video bytes"))
	rr := c.send(http.MethodPost, "/api/admin/upload", ct, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody(t, rr)
	if resp["success"] != true || resp["url"] != "/videos/show_reel.mp4" || resp["fileName"] != "show_reel.mp4" {
		t.Fatalf("unexpected response %v", resp)
	}
	if resp["size"] != float64(len("fake video bytes")) || resp["type"] != "video/mp4" {
		t.Fatalf("unexpected size/type %v", resp)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.PublicDir, "videos", "show_reel.mp4")); err != nil {
		t.Fatalf("file not stored: %v", err)
	}

	served := c.get("/videos/show_reel.mp4")
	if served.Code != http.StatusOK || served.Body.String() != "fake video bytes" {
		t.Fatalf("serve: %d %q", served.Code, served.Body.String())
	}
}

func TestUpload_Rejections(t *testing.T) {
	env := newTestServer(t, func(cfg *config.Config) { cfg.MaxUploadBytes = 1024 })
	c := env.client(t, "203.0.113.23")
	c.mustLogin()

	tests := []struct {
		name     string
		fields   map[string]string
		fileName string
		ct       string
		data     []byte
		want     int
	}{
		{"no file", nil, "", "", nil, http.StatusBadRequest},
		{"not media", nil, "notes.txt", "text/plain", []byte("hi"), http.StatusBadRequest},
		{"escaping folder", map[string]string{"folder": "../etc"}, "a.png", "image/png", []byte("x"), http.StatusBadRequest},
		{"too large", nil, "big.png", "image/png", bytes.Repeat([]byte("x"), 4096), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartUpload(t, tt.fields, tt.fileName, tt.ct, tt.data)
			rr := c.send(http.MethodPost, "/api/admin/upload", ct, body)
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
			if resp := decodeBody(t, rr); resp["success"] != false {
				t.Fatalf("unexpected response %v", resp)
			}
		})
	}
}

func TestUpload_RequiresSession(t *testing.T) {
	env := newTestServer(t)
	c := env.client(t, "203.0.113.24")

	body, ct := multipartUpload(t, nil, "a.png", "image/png", []byte("x"))
	if rr := c.send(http.MethodPost, "/api/admin/upload", ct, body); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestPublicFiles(t *testing.T) {
	env := newTestServer(t)
	if err := os.MkdirAll(filepath.Join(env.cfg.PublicDir, "videos"), 0o755); err != nil {
		t.Fatal(err)
	}
	c := env.client(t, "")

	if rr := c.get("/videos/"); rr.Code != http.StatusNotFound {
		t.Fatalf("directory listing: expected 404, got %d", rr.Code)
	}
	if rr := c.get("/missing.mp4"); rr.Code != http.StatusNotFound {
		t.Fatalf("missing file: expected 404, got %d", rr.Code)
	}
}
