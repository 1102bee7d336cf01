package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"course-market/internal/apiserver/auth"
	"course-market/internal/shared/model"
)

// fakeUploader 记录上传调用，可注入失败
type fakeUploader struct {
	lastKey  string
	lastSize int64
	failWith error
}

func (f *fakeUploader) UploadVideo(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	f.lastKey = key
	f.lastSize = size
	return "http://localhost:9000/course-videos/" + key, nil
}

func uploadReq(t *testing.T, filename string, content []byte, username string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest("POST", "/upload-video", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if username != "" {
		req = req.WithContext(auth.WithAuthUser(req.Context(), &auth.AuthUser{
			Username: username,
			Role:     model.UserRoleInstructor,
		}))
	}
	return req
}

func TestUpload(t *testing.T) {
	up := &fakeUploader{}
	h := NewHandler(up)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadReq(t, "lesson1.mp4", []byte("fake video bytes"), "teach01"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["url"] == "" {
		t.Error("upload should return a url")
	}
	if up.lastKey == "" || up.lastSize != int64(len("fake video bytes")) {
		t.Errorf("uploader got key=%q size=%d", up.lastKey, up.lastSize)
	}
}

func TestUploadFailurePropagates(t *testing.T) {
	up := &fakeUploader{failWith: errors.New("minio unreachable")}
	h := NewHandler(up)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadReq(t, "lesson1.mp4", []byte("x"), "teach01"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	// 失败时不得返回任何地址
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["url"] != "" {
		t.Errorf("failure must not return a url, got %q", resp["url"])
	}
}

func TestUploadValidation(t *testing.T) {
	h := NewHandler(&fakeUploader{})

	// 未认证
	rec := httptest.NewRecorder()
	h.Upload(rec, uploadReq(t, "lesson1.mp4", []byte("x"), ""))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated: status = %d, want 401", rec.Code)
	}

	// 不支持的格式
	rec = httptest.NewRecorder()
	h.Upload(rec, uploadReq(t, "malware.exe", []byte("x"), "teach01"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad format: status = %d, want 400", rec.Code)
	}

	// 缺少 file 字段
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/upload-video", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	req = req.WithContext(auth.WithAuthUser(req.Context(), &auth.AuthUser{
		Username: "teach01", Role: model.UserRoleInstructor,
	}))
	h.Upload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file: status = %d, want 400", rec.Code)
	}
}

func TestUploadWithoutObjectStore(t *testing.T) {
	h := NewHandler(nil)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadReq(t, "lesson1.mp4", []byte("x"), "teach01"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
