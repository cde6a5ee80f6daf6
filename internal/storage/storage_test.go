package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"parallax/internal/storage"
)

type fakeObject struct {
	data        []byte
	contentType string
}

// fakeS3 implements just enough of the S3 wire protocol for the client's
// download and upload paths: bucket HEAD/PUT, object HEAD/GET/PUT, and the
// location probe the SDK issues before signing requests.
type fakeS3 struct {
	mu            sync.Mutex
	buckets       map[string]map[string]fakeObject
	bucketCreates int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{buckets: make(map[string]map[string]fakeObject)}
}

func (f *fakeS3) createBucket(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[name]; !ok {
		f.buckets[name] = make(map[string]fakeObject)
	}
}

func (f *fakeS3) putObject(bucket, key string, obj fakeObject) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[bucket]; !ok {
		f.buckets[bucket] = make(map[string]fakeObject)
	}
	f.buckets[bucket][key] = obj
}

func (f *fakeS3) object(bucket, key string) (fakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	objects, ok := f.buckets[bucket]
	if !ok {
		return fakeObject{}, false
	}
	obj, ok := objects[key]
	return obj, ok
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("location") {
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></LocationConstraint>`)
		return
	}

	bucket, key := splitObjectPath(r.URL.Path)
	if bucket == "" {
		http.Error(w, "missing bucket", http.StatusBadRequest)
		return
	}

	if key == "" {
		f.serveBucket(w, r, bucket)
		return
	}
	f.serveObject(w, r, bucket, key)
}

func (f *fakeS3) serveBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	switch r.Method {
	case http.MethodHead:
		f.mu.Lock()
		_, ok := f.buckets[bucket]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		f.mu.Lock()
		f.bucketCreates++
		f.mu.Unlock()
		f.createBucket(bucket)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) serveObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	switch r.Method {
	case http.MethodHead, http.MethodGet:
		obj, ok := f.object(bucket, key)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("ETag", `"fake-etag"`)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.data)
		}
	case http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.putObject(bucket, key, fakeObject{data: data, contentType: r.Header.Get("Content-Type")})
		w.Header().Set("ETag", `"fake-etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func splitObjectPath(path string) (bucket, key string) {
	trimmed := strings.TrimPrefix(path, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		key = parts[1]
	}
	return bucket, key
}

func newTestClient(t *testing.T, fake *fakeS3) *storage.MinIO {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	endpoint := strings.TrimPrefix(server.URL, "http://")
	client, err := storage.NewMinIO(endpoint, "test-access", "test-secret", false)
	if err != nil {
		t.Fatalf("NewMinIO: %v", err)
	}
	return client
}

func TestDownloadFetchesObjectIntoNestedPath(t *testing.T) {
	fake := newFakeS3()
	fake.putObject("test-input", "inputs/clip.mp4", fakeObject{data: []byte("video-bytes"), contentType: "video/mp4"})
	client := newTestClient(t, fake)

	dst := filepath.Join(t.TempDir(), "job-1", "input", "source.mp4")
	if err := client.Download(context.Background(), "test-input", "inputs/clip.mp4", dst); err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(got) != "video-bytes" {
		t.Fatalf("downloaded content = %q, want %q", got, "video-bytes")
	}
}

func TestDownloadMissingObjectFails(t *testing.T) {
	fake := newFakeS3()
	fake.createBucket("test-input")
	client := newTestClient(t, fake)

	dst := filepath.Join(t.TempDir(), "source.mp4")
	err := client.Download(context.Background(), "test-input", "inputs/missing.mp4", dst)
	if err == nil {
		t.Fatal("expected error for missing object")
	}
	if !strings.Contains(err.Error(), "test-input/inputs/missing.mp4") {
		t.Fatalf("error should name bucket and key, got %v", err)
	}
}

func TestUploadCreatesMissingBucket(t *testing.T) {
	fake := newFakeS3()
	client := newTestClient(t, fake)

	local := filepath.Join(t.TempDir(), "result.glb")
	if err := os.WriteFile(local, []byte("glb-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := client.Upload(context.Background(), local, "test-output", "outputs/job-1/result.glb", "model/gltf-binary"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	obj, ok := fake.object("test-output", "outputs/job-1/result.glb")
	if !ok {
		t.Fatal("object not stored")
	}
	if string(obj.data) != "glb-bytes" {
		t.Fatalf("stored content = %q, want %q", obj.data, "glb-bytes")
	}
	if obj.contentType != "model/gltf-binary" {
		t.Fatalf("content type = %q, want model/gltf-binary", obj.contentType)
	}
	if fake.bucketCreates != 1 {
		t.Fatalf("bucket creates = %d, want 1", fake.bucketCreates)
	}
}

func TestUploadReusesExistingBucket(t *testing.T) {
	fake := newFakeS3()
	fake.createBucket("test-output")
	client := newTestClient(t, fake)

	local := filepath.Join(t.TempDir(), "result.glb")
	if err := os.WriteFile(local, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := client.Upload(context.Background(), local, "test-output", "result.glb", ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if fake.bucketCreates != 0 {
		t.Fatalf("bucket creates = %d, want 0", fake.bucketCreates)
	}
}

func TestNewMinIORejectsEndpointWithScheme(t *testing.T) {
	if _, err := storage.NewMinIO("http://127.0.0.1:9000", "ak", "sk", false); err == nil {
		t.Fatal("expected error for endpoint with scheme")
	}
}
