package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vttserver/internal/config"
	"vttserver/internal/rooms"
	"vttserver/internal/store"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore(time.Hour)
	cfg := config.Config{
		Port:          "0",
		Env:           "test",
		RoomTTL:       time.Hour,
		UploadDir:     t.TempDir(),
		PublicBaseURL: "http://example.test",
	}
	srv := New(cfg, st, zerolog.Nop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts, st
}

func TestCreateRoom(t *testing.T) {
	_, ts, st := newTestServer(t)

	resp, err := http.Post(ts.URL+"/rooms", "application/json", strings.NewReader(`{"gmId":"gm-1"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		RoomID string `json:"roomId"`
		GMID   string `json:"gmId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.RoomID) != 8 {
		t.Errorf("roomId = %q, want 8 characters", body.RoomID)
	}
	if body.GMID != "gm-1" {
		t.Errorf("gmId = %q, want gm-1 (caller-supplied)", body.GMID)
	}

	state, err := st.Get(context.Background(), body.RoomID)
	if err != nil {
		t.Fatal(err)
	}
	if state == nil {
		t.Fatal("created room was not persisted")
	}
	if state.GMID != "gm-1" {
		t.Errorf("persisted gmId = %q, want gm-1", state.GMID)
	}
	if state.PasswordHash != nil {
		t.Error("room without password should have nil hash")
	}
	if state.Config.GridType != "SQUARE" {
		t.Error("room should be created with default config")
	}
}

func TestCreateRoom_EmptyBody(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/rooms", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		RoomID string `json:"roomId"`
		GMID   string `json:"gmId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.GMID == "" {
		t.Error("gmId should be minted when not supplied")
	}
}

func TestCreateRoom_PasswordIsHashed(t *testing.T) {
	_, ts, st := newTestServer(t)

	resp, err := http.Post(ts.URL+"/rooms", "application/json", strings.NewReader(`{"password":"dragons"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	state, _ := st.Get(context.Background(), body.RoomID)
	if state.PasswordHash == nil {
		t.Fatal("password room should have a hash")
	}
	if *state.PasswordHash == "dragons" {
		t.Error("password stored raw, want bcrypt hash")
	}
	if !rooms.CheckPassword(*state.PasswordHash, "dragons") {
		t.Error("stored hash does not match the password")
	}
}

func TestHealthz(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
}

func TestUpload(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "map.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("not-really-a-png"))
	mw.Close()

	resp, err := http.Post(ts.URL+"/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Filename != "map.png" {
		t.Errorf("filename = %q, want map.png", body.Filename)
	}
	if !strings.HasPrefix(body.URL, "http://example.test/uploads/") {
		t.Errorf("url = %q, want public uploads prefix", body.URL)
	}
	if !strings.HasSuffix(body.URL, ".png") {
		t.Errorf("url = %q, should keep the original extension", body.URL)
	}

	// The stored file is served back under /uploads/.
	name := strings.TrimPrefix(body.URL, "http://example.test")
	got, err := http.Get(ts.URL + name)
	if err != nil {
		t.Fatal(err)
	}
	defer got.Body.Close()
	content, _ := io.ReadAll(got.Body)
	if string(content) != "not-really-a-png" {
		t.Errorf("served content = %q", content)
	}
}

func TestUpload_NoFile(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/upload", "multipart/form-data", strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
