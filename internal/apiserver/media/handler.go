// Package media 视频上传 HTTP 处理器
package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"

	"course-market/internal/apiserver/auth"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxUploadSize 单个视频大小上限（512 MiB）
const maxUploadSize = 512 << 20

// uploadsTotal 成功上传计数
var uploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "course_market_uploads_total",
	Help: "Total number of successful video uploads",
})

// Uploader 对象存储上传接口
type Uploader interface {
	UploadVideo(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
}

// Handler 视频上传处理器
//
// uploader 为 nil 表示对象存储未配置，上传接口返回 503。
type Handler struct {
	uploader Uploader
}

// NewHandler 创建上传处理器
func NewHandler(uploader Uploader) *Handler {
	return &Handler{uploader: uploader}
}

// RegisterRoutes 注册上传路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /upload-video", h.Upload)
}

// Upload 上传视频
// POST /upload-video（multipart 表单，字段名 file）
//
// 上传直接流向对象存储，不落本地磁盘。
// 上游失败返回 500，绝不编造可用地址。
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if h.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "video upload is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	switch ext {
	case ".mp4", ".webm", ".mov", ".mkv":
	default:
		writeError(w, http.StatusBadRequest, "unsupported video format")
		return
	}

	key := fmt.Sprintf("%s/%s%s", authUser.Username, randomHex(8), ext)
	contentType := header.Header.Get("Content-Type")

	url, err := h.uploader.UploadVideo(r.Context(), key, file, header.Size, contentType)
	if err != nil {
		log.Printf("[media] UploadVideo error: %v", err)
		writeError(w, http.StatusInternalServerError, "video upload failed")
		return
	}

	uploadsTotal.Inc()
	log.Printf("[media] Video uploaded by %s: %s (%d bytes)", authUser.Username, key, header.Size)
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
