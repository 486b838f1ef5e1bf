package rest_test

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockroom-app/stockroom/api/rest"
	"github.com/stockroom-app/stockroom/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUploadRouter(endpoint string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := rest.NewUploadHandler(config.UploadConfig{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
	}, zap.NewNop())
	r := gin.New()
	r.POST("/api/upload", h.Upload)
	return r
}

func multipartImage(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mp := multipart.NewWriter(buf)
	fw, err := mp.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mp.Close())
	return buf, mp.FormDataContentType()
}

func TestUpload_Success(t *testing.T) {
	var gotImage string
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotImage = r.FormValue("image")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"url":"https://img.example/abc.png"}}`))
	}))
	defer host.Close()

	r := newUploadRouter(host.URL)
	body, contentType := multipartImage(t, []byte("fake-png-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "https://img.example/abc.png")

	// The host receives the file base64-encoded.
	decoded, err := base64.StdEncoding.DecodeString(gotImage)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png-bytes"), decoded)
}

func TestUpload_NoFile(t *testing.T) {
	r := newUploadRouter("http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No file uploaded")
}

func TestUpload_UpstreamFailure(t *testing.T) {
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer host.Close()

	r := newUploadRouter(host.URL)
	body, contentType := multipartImage(t, []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUpload_UnreachableHost(t *testing.T) {
	r := newUploadRouter("http://127.0.0.1:1")
	body, contentType := multipartImage(t, []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
