package rest

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockroom-app/stockroom/config"
	"go.uber.org/zap"
)

// UploadHandler proxies image uploads to the external image host and
// returns the public URL it assigns.
type UploadHandler struct {
	cfg    config.UploadConfig
	client *http.Client
	logger *zap.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(cfg config.UploadConfig, logger *zap.Logger) *UploadHandler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &UploadHandler{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// hostResponse is the subset of the image host's response we need.
type hostResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Upload handles POST /api/upload with a multipart "image" field.
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(raw))

	endpoint := h.cfg.Endpoint + "?key=" + url.QueryEscape(h.cfg.APIKey)
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("image host request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		h.logger.Error("image host rejected upload",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	var hosted hostResponse
	if err := json.NewDecoder(resp.Body).Decode(&hosted); err != nil || hosted.Data.URL == "" {
		h.logger.Error("image host returned unexpected body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": hosted.Data.URL})
}
