package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "reports/u/file.pdf", want: "reports/u/file.pdf"},
		{name: "simple prefix", prefix: "root", key: "reports/u/file.pdf", want: "root/reports/u/file.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "reports/u/file.pdf", want: "root/reports/u/file.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/reports/u/file.pdf", want: "root/reports/u/file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

type fakeS3 struct {
	puts   []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, data)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("pdf"))}, nil
}

type fakePresigner struct {
	key     string
	expires time.Duration
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*presignedRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.key = aws.ToString(in.Key)
	f.expires = opts.Expires
	return &presignedRequest{URL: "https://signed.example/" + f.key}, nil
}

func TestPutSetsEncryptionAndLength(t *testing.T) {
	client := &fakeS3{}
	store := newStore(client, &fakePresigner{}, Options{Bucket: "b", Prefix: "env"})

	n, err := store.Put(context.Background(), "reports/u1/r.pdf", "application/pdf", strings.NewReader("%PDF-1.3"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8 bytes, got %d", n)
	}
	in := client.puts[0]
	if aws.ToString(in.Key) != "env/reports/u1/r.pdf" {
		t.Fatalf("unexpected key %q", aws.ToString(in.Key))
	}
	if in.ServerSideEncryption != s3types.ServerSideEncryptionAes256 {
		t.Fatalf("expected AES256 encryption, got %q", in.ServerSideEncryption)
	}
	if aws.ToInt64(in.ContentLength) != 8 {
		t.Fatalf("expected content length 8")
	}
	if !bytes.Equal(client.bodies[0], []byte("%PDF-1.3")) {
		t.Fatalf("unexpected body %q", client.bodies[0])
	}
}

func TestPutWithCustomEndpointSkipsAES(t *testing.T) {
	client := &fakeS3{}
	store := newStore(client, &fakePresigner{}, Options{Bucket: "b", Endpoint: "https://storage.example"})
	if _, err := store.Put(context.Background(), "k.pdf", "application/pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if client.puts[0].ServerSideEncryption != "" {
		t.Fatalf("expected no SSE header, got %q", client.puts[0].ServerSideEncryption)
	}
}

func TestPutRejectsTraversal(t *testing.T) {
	store := newStore(&fakeS3{}, &fakePresigner{}, Options{Bucket: "b"})
	if _, err := store.Put(context.Background(), "../etc/passwd", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for traversal key")
	}
}

func TestPutWrapsClientError(t *testing.T) {
	store := newStore(&fakeS3{err: errors.New("access denied")}, &fakePresigner{}, Options{Bucket: "b"})
	_, err := store.Put(context.Background(), "k.pdf", "application/pdf", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestURLPresignsWithTTL(t *testing.T) {
	presigner := &fakePresigner{}
	store := newStore(&fakeS3{}, presigner, Options{Bucket: "b", PresignTTL: 48 * time.Hour})

	got, err := store.URL(context.Background(), "reports/u1/r.pdf")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if got != "https://signed.example/reports/u1/r.pdf" {
		t.Fatalf("unexpected url %q", got)
	}
	if presigner.expires != 48*time.Hour {
		t.Fatalf("expected 48h expiry, got %s", presigner.expires)
	}
}

func TestURLUsesPublicBase(t *testing.T) {
	store := newStore(&fakeS3{}, &fakePresigner{}, Options{Bucket: "b", PublicBaseURL: "https://cdn.example/reports/"})
	got, err := store.URL(context.Background(), "reports/u 1/r.pdf")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if got != "https://cdn.example/reports/reports/u%201/r.pdf" {
		t.Fatalf("unexpected url %q", got)
	}
}
