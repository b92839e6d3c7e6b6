package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"buylog/internal/config"
	"buylog/internal/feed"
)

func TestHTTPTarget_Put(t *testing.T) {
	var (
		gotMethod, gotType, gotBlob string
		gotBody                     []byte
		gotLength                   int64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotBlob = r.Header.Get("x-ms-blob-type")
		gotLength = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	data := bytes.Repeat([]byte("x"), 1000)
	var progress []int
	target := NewHTTPTarget(srv.Client(), 0)
	err := target.Put(context.Background(), feed.UploadTarget{UploadURL: srv.URL + "/blob/m1"},
		bytes.NewReader(data), int64(len(data)), "image/png", func(p int) { progress = append(progress, p) })
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotType != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", gotType)
	}
	if gotBlob != "BlockBlob" {
		t.Errorf("x-ms-blob-type = %q, want BlockBlob", gotBlob)
	}
	if gotLength != 1000 || !bytes.Equal(gotBody, data) {
		t.Errorf("body length = %d (%d bytes), want 1000", gotLength, len(gotBody))
	}
	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Errorf("progress = %v, want to end at 100", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] <= progress[i-1] {
			t.Errorf("progress not increasing: %v", progress)
			break
		}
	}
}

func TestHTTPTarget_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, "SAS token expired or invalid"},
		{http.StatusNotFound, "storage container not found"},
		{http.StatusConflict, "blob already exists"},
		{http.StatusRequestEntityTooLarge, "file too large for storage"},
		{http.StatusBadRequest, "invalid upload request"},
		{http.StatusInternalServerError, "upload failed with status 500"},
		{http.StatusTeapot, "upload failed with status 418"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewHTTPTarget(srv.Client(), 0).Put(context.Background(),
				feed.UploadTarget{UploadURL: srv.URL}, strings.NewReader("abc"), 3, "image/png", nil)

			var ue *UploadError
			if !errors.As(err, &ue) {
				t.Fatalf("Put() error = %v, want *UploadError", err)
			}
			if ue.Status != tt.status || ue.Error() != tt.want {
				t.Errorf("UploadError = {%d %q}, want {%d %q}", ue.Status, ue.Error(), tt.status, tt.want)
			}
		})
	}
}

func TestHTTPTarget_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := NewHTTPTarget(srv.Client(), 50*time.Millisecond).Put(context.Background(),
		feed.UploadTarget{UploadURL: srv.URL}, strings.NewReader("abc"), 3, "image/png", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Put() error = %v, want deadline exceeded", err)
	}
}

func TestHTTPTarget_MissingURL(t *testing.T) {
	err := NewHTTPTarget(nil, 0).Put(context.Background(), feed.UploadTarget{}, strings.NewReader(""), 0, "image/png", nil)
	if err == nil {
		t.Error("Put() without upload url expected error")
	}
}

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = input
	f.body, _ = io.ReadAll(input.Body)
	return &manager.UploadOutput{}, nil
}

func TestS3Target_Put(t *testing.T) {
	u := &fakeUploader{}
	target := NewS3TargetWithUploader(u, "media-bucket", "uploads")

	var last int
	err := target.Put(context.Background(),
		feed.UploadTarget{MediaID: "m1", FileName: "shoes.png"},
		strings.NewReader("png-bytes"), 9, "image/png", func(p int) { last = p })
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if got := *u.input.Bucket; got != "media-bucket" {
		t.Errorf("Bucket = %q, want media-bucket", got)
	}
	if got := *u.input.Key; got != "uploads/m1/shoes.png" {
		t.Errorf("Key = %q, want uploads/m1/shoes.png", got)
	}
	if got := *u.input.ContentType; got != "image/png" {
		t.Errorf("ContentType = %q, want image/png", got)
	}
	if string(u.body) != "png-bytes" {
		t.Errorf("body = %q", u.body)
	}
	if last != 100 {
		t.Errorf("last progress = %d, want 100", last)
	}
}

func TestS3Target_Key(t *testing.T) {
	target := NewS3TargetWithUploader(&fakeUploader{}, "b", "")
	if got := target.Key(feed.UploadTarget{MediaID: "m1", FileName: "../../etc/passwd"}); got != "m1/passwd" {
		t.Errorf("Key() = %q, want m1/passwd", got)
	}
}

func TestS3Target_Errors(t *testing.T) {
	target := NewS3TargetWithUploader(&fakeUploader{}, "b", "p")
	if err := target.Put(context.Background(), feed.UploadTarget{FileName: "a.png"}, strings.NewReader("x"), 1, "image/png", nil); err == nil {
		t.Error("Put() without media id expected error")
	}

	failing := NewS3TargetWithUploader(&fakeUploader{err: errors.New("access denied")}, "b", "p")
	err := failing.Put(context.Background(), feed.UploadTarget{MediaID: "m", FileName: "a.png"}, strings.NewReader("x"), 1, "image/png", nil)
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Errorf("Put() error = %v, want wrapped uploader error", err)
	}
}

func TestMemoryTarget(t *testing.T) {
	m := NewMemoryTarget()

	if err := m.Put(context.Background(), feed.UploadTarget{MediaID: "m1"}, strings.NewReader("abc"), 3, "image/gif", nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := m.Put(context.Background(), feed.UploadTarget{MediaID: "m2"}, strings.NewReader("abc"), 5, "image/gif", nil); err == nil {
		t.Error("Put() with wrong size expected error")
	}

	m.Fail(errors.New("offline"))
	if err := m.Put(context.Background(), feed.UploadTarget{MediaID: "m3"}, strings.NewReader("abc"), 3, "image/gif", nil); err == nil {
		t.Error("Put() after Fail expected error")
	}

	objs := m.Objects()
	if len(objs) != 1 || objs[0].Target.MediaID != "m1" || string(objs[0].Data) != "abc" {
		t.Errorf("Objects() = %+v", objs)
	}
}

func TestFileTarget_Put(t *testing.T) {
	dir := t.TempDir()
	ft, err := NewFileTarget(dir)
	if err != nil {
		t.Fatalf("NewFileTarget() error = %v", err)
	}
	target := feed.UploadTarget{MediaID: "m1", FileName: "shoes.png"}

	var progress []int
	if err := ft.Put(context.Background(), target, strings.NewReader("abcd"), 4, "image/png", func(p int) {
		progress = append(progress, p)
	}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "m1", "shoes.png"))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "abcd" {
		t.Errorf("stored = %q, want %q", data, "abcd")
	}
	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Errorf("progress = %v, want to end at 100", progress)
	}

	// Overwrite with new content.
	if err := ft.Put(context.Background(), target, strings.NewReader("xy"), 2, "image/png", nil); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	data, _ = os.ReadFile(ft.Path(target))
	if string(data) != "xy" {
		t.Errorf("after overwrite = %q, want %q", data, "xy")
	}
}

func TestFileTarget_PutErrors(t *testing.T) {
	dir := t.TempDir()
	ft, err := NewFileTarget(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := ft.Put(context.Background(), feed.UploadTarget{FileName: "a.png"}, strings.NewReader("a"), 1, "image/png", nil); err == nil {
		t.Error("Put() without media id expected error")
	}

	if err := ft.Put(context.Background(), feed.UploadTarget{MediaID: "..", FileName: "a.png"}, strings.NewReader("a"), 1, "image/png", nil); err == nil {
		t.Error("Put() with media id .. expected error")
	}

	target := feed.UploadTarget{MediaID: "m2", FileName: "a.png"}
	if err := ft.Put(context.Background(), target, strings.NewReader("abc"), 10, "image/png", nil); err == nil {
		t.Error("Put() with size mismatch expected error")
	}
	if _, err := os.Stat(ft.Path(target)); !os.IsNotExist(err) {
		t.Error("failed Put() should not leave a file behind")
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "m2"))
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ft.Put(ctx, target, strings.NewReader("a"), 1, "image/png", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() with cancelled ctx error = %v, want context.Canceled", err)
	}
}

func TestFileTarget_PathStaysInRoot(t *testing.T) {
	ft, err := NewFileTarget(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	got := ft.Path(feed.UploadTarget{MediaID: "../m", FileName: "../../etc/passwd"})
	if filepath.Dir(filepath.Dir(got)) != ft.root {
		t.Errorf("Path() = %q escapes root %q", got, ft.root)
	}
}

func TestNewTargetFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MediaConfig
		wantErr bool
	}{
		{name: "http", cfg: config.MediaConfig{Type: "http"}},
		{name: "default", cfg: config.MediaConfig{}},
		{name: "memory", cfg: config.MediaConfig{Type: "memory"}},
		{name: "s3 without bucket", cfg: config.MediaConfig{Type: "s3"}, wantErr: true},
		{name: "s3 with static keys", cfg: config.MediaConfig{
			Type: "s3", S3Bucket: "b", S3Region: "us-east-1",
			S3AccessKeyID: "AKID", S3SecretAccessKey: "secret", S3Endpoint: "http://localhost:9000",
		}},
		{name: "file without dir", cfg: config.MediaConfig{Type: "file"}, wantErr: true},
		{name: "file", cfg: config.MediaConfig{Type: "file", Dir: t.TempDir()}},
		{name: "unknown", cfg: config.MediaConfig{Type: "ftp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTargetFromConfig(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTargetFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got == nil {
				t.Error("NewTargetFromConfig() returned nil")
			}
		})
	}
}
