package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"athletehub-api/internal/adapters/storage"
	"athletehub-api/internal/auth"

	"github.com/gin-gonic/gin"
)

func newFileEngine(t *testing.T) (*gin.Engine, *storage.LocalFileStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	files, err := storage.NewLocalFileStorage(t.TempDir(), "http://localhost:8081/files", time.Minute)
	if err != nil {
		t.Fatalf("NewLocalFileStorage() failed: %v", err)
	}
	engine := gin.New()
	NewLocalFileHandler(files, quietLogger()).Register(engine.Group("/files"))
	return engine, files
}

func serve(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, strings.NewReader(body)))
	return w
}

func TestLocalFileHandler_RoundTrip(t *testing.T) {
	engine, files := newFileEngine(t)

	issued, err := files.IssueUploadURL(context.Background(), "athlete-1")
	if err != nil {
		t.Fatalf("IssueUploadURL() failed: %v", err)
	}
	u, err := url.Parse(issued.UploadURL)
	if err != nil {
		t.Fatalf("bad upload URL: %v", err)
	}

	w := serve(engine, http.MethodPut, u.RequestURI(), "video-bytes")
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", w.Code, w.Body.String())
	}

	path, err := files.Path(issued.Key)
	if err != nil {
		t.Fatalf("Path() failed: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "video-bytes" {
		t.Errorf("stored %q", data)
	}

	w = serve(engine, http.MethodGet, "/files/"+issued.Key, "")
	if w.Code != http.StatusOK || w.Body.String() != "video-bytes" {
		t.Errorf("download status = %d, body %q", w.Code, w.Body.String())
	}
}

func TestLocalFileHandler_Rejections(t *testing.T) {
	engine, _ := newFileEngine(t)
	future := time.Now().Add(time.Minute).Unix()
	past := time.Now().Add(-time.Minute).Unix()

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"expired upload", http.MethodPut, "/files/videos/a/1.mp4?expires=" + strconv.FormatInt(past, 10), http.StatusForbidden},
		{"missing expiry", http.MethodPut, "/files/videos/a/1.mp4", http.StatusForbidden},
		{"outside videos", http.MethodPut, "/files/other/a.mp4?expires=" + strconv.FormatInt(future, 10), http.StatusBadRequest},
		{"missing file", http.MethodGet, "/files/videos/a/404.mp4", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(engine, tt.method, tt.target, "x")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestDevTokenHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: "dev-secret"})
	engine := gin.New()
	engine.POST("/dev/token", NewDevTokenHandler(tokens).Issue)

	w := serve(engine, http.MethodPost, "/dev/token", `{"userId":"coach-1","groups":["coaches"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	claims, err := tokens.ValidateToken(body["token"])
	if err != nil {
		t.Fatalf("ValidateToken() failed: %v", err)
	}
	principal, err := auth.ExtractPrincipal(claims.Bag())
	if err != nil || !principal.HasRole(auth.RoleCoach) {
		t.Errorf("issued token lacks the coach role: %+v, %v", principal, err)
	}

	for _, bad := range []string{`{}`, `{"userId":"u","customRole":"admin"}`, `nope`} {
		if w := serve(engine, http.MethodPost, "/dev/token", bad); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", bad, w.Code)
		}
	}
}
