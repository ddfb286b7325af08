package ps

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 keeps objects in a map and pages listings two at a time.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var names []string
	for name := range f.objects {
		if strings.HasPrefix(name, aws.ToString(in.Prefix)) && name > aws.ToString(in.ContinuationToken) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := &s3.ListObjectsV2Output{}
	if len(names) > 2 {
		names = names[:2]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(names[1])
	}
	for _, name := range names {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(name)})
	}
	return out, nil
}

func TestS3KV(t *testing.T) {
	testKV(t, newS3KV(newFakeS3(), "bucket", "tenant"))
}

func TestS3KVPrefix(t *testing.T) {
	fake := newFakeS3()
	fake.objects["other/users.json"] = []byte("[]")

	kv := newS3KV(fake, "bucket", "tenant/")
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		if err := kv.Set(key, []byte("[]")); err != nil {
			t.Fatalf("Failed to set %s: %v", key, err)
		}
	}
	if _, ok := fake.objects["tenant/a.json"]; !ok {
		t.Errorf("Expected object under prefix, got %v", fake.objects)
	}

	keys, err := kv.Keys()
	if err != nil {
		t.Fatalf("Failed to list keys: %v", err)
	}
	if strings.Join(keys, ",") != "a,b,c,d,e" {
		t.Errorf("Expected every page listed, got %v", keys)
	}

	kv.Clear()
	if _, ok := fake.objects["other/users.json"]; !ok {
		t.Error("Clear must leave other prefixes alone")
	}

	kv.Close()
	if _, err := kv.Keys(); err != ErrNotInitialized {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}
