package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/groupvial/internal/config"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "/uploads/")

	url, err := store.Put(context.Background(), "products/2026/10/a.png", "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if url != "/uploads/products/2026/10/a.png" {
		t.Fatalf("unexpected url: %s", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "products", "2026", "10", "a.png"))
	if err != nil || string(data) != "png" {
		t.Fatalf("file not written: %v %q", err, data)
	}
	if err := store.Delete(context.Background(), "products/2026/10/a.png"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(context.Background(), "products/2026/10/a.png"); err != nil {
		t.Fatalf("delete missing should be ignored: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "/uploads")
	if _, err := store.Put(context.Background(), "", "", nil); err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	url, err := store.Put(context.Background(), "../../etc/passwd", "", []byte("x"))
	if err != nil {
		t.Fatalf("cleaned key should be accepted: %v", err)
	}
	if url != "/uploads/etc/passwd" {
		t.Fatalf("key should be rooted under store: %s", url)
	}
}

type fakeObjectAPI struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
}

func (f *fakeObjectAPI) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, params)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, params)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorePutUsesBucketAndContentType(t *testing.T) {
	api := &fakeObjectAPI{}
	store := NewS3StoreWithClient(api, config.S3Config{Bucket: "catalog"}, "ap-southeast-1", "")

	url, err := store.Put(context.Background(), "products/x.webp", "image/webp", []byte("data"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if url != "https://catalog.s3.ap-southeast-1.amazonaws.com/products/x.webp" {
		t.Fatalf("unexpected url: %s", url)
	}
	if len(api.puts) != 1 || *api.puts[0].Bucket != "catalog" || *api.puts[0].ContentType != "image/webp" {
		t.Fatalf("unexpected put input: %+v", api.puts)
	}
	if err := store.Delete(context.Background(), "products/x.webp"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(api.deletes) != 1 || *api.deletes[0].Key != "products/x.webp" {
		t.Fatalf("unexpected delete input: %+v", api.deletes)
	}
}

func TestResolveS3PublicBase(t *testing.T) {
	cases := []struct {
		name   string
		cfg    config.S3Config
		public string
		want   string
	}{
		{"explicit", config.S3Config{Bucket: "b"}, "https://cdn.example.com/", "https://cdn.example.com"},
		{"path style endpoint", config.S3Config{Bucket: "b", Endpoint: "http://minio:9000", UsePathStyle: true}, "", "http://minio:9000/b"},
		{"virtual host endpoint", config.S3Config{Bucket: "b", Endpoint: "https://r2.example.com"}, "", "https://b.r2.example.com"},
		{"aws default", config.S3Config{Bucket: "b"}, "/uploads", "https://b.s3.us-east-1.amazonaws.com"},
	}
	for _, tc := range cases {
		if got := resolveS3PublicBase(tc.cfg, "us-east-1", tc.public); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}
