package objstore

import (
	"context"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"keai-site/pkg/keai"
)

type fakeS3 struct {
	objects map[string][]byte

	lastContentType  string
	lastCacheControl string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, exists := f.objects[aws.ToString(input.Key)]
	if !exists {
		return nil, &types.NoSuchKey{}
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(input.Key)] = data
	f.lastContentType = aws.ToString(input.ContentType)
	f.lastCacheControl = aws.ToString(input.CacheControl)

	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newTestStore(fake *fakeS3) *Store {
	return &Store{
		client:    fake,
		bucket:    "keai",
		publicURL: "https://pub-test.r2.dev",
	}
}

func TestStoreJSONRoundTrip(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	store := newTestStore(fake)
	ctx := context.Background()

	type blob struct {
		Name string `json:"name"`
	}

	found, err := store.GetJSON(ctx, "cache/listing.json", &blob{})
	if err != nil {
		t.Fatalf("GetJSON on missing key: %v", err)
	}
	if found {
		t.Fatal("missing key reported found")
	}

	if err := store.PutJSON(ctx, "cache/listing.json", blob{Name: "listing"}); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}
	if fake.lastContentType != "application/json" {
		t.Fatalf("content type = %q", fake.lastContentType)
	}

	var loaded blob
	found, err = store.GetJSON(ctx, "cache/listing.json", &loaded)
	if err != nil || !found {
		t.Fatalf("GetJSON: found=%v err=%v", found, err)
	}
	if loaded.Name != "listing" {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestStorePutImage(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	store := newTestStore(fake)

	url, err := store.PutImage(context.Background(), "popups/banner.webp", []byte{1, 2, 3}, "image/webp")
	if err != nil {
		t.Fatalf("PutImage: %v", err)
	}
	if url != "https://pub-test.r2.dev/popups/banner.webp" {
		t.Fatalf("public url = %q", url)
	}
	if fake.lastCacheControl != immutableCacheControl {
		t.Fatalf("cache control = %q", fake.lastCacheControl)
	}
}

func TestDecodeImagePayload(t *testing.T) {
	t.Parallel()

	pngBytes := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	encodedPNG := base64.StdEncoding.EncodeToString(pngBytes)

	tests := []struct {
		name     string
		payload  string
		wantType string
		wantErr  bool
	}{
		{
			name:     "bare base64 png",
			payload:  encodedPNG,
			wantType: "image/png",
		},
		{
			name:     "data url prefix stripped",
			payload:  "data:image/png;base64," + encodedPNG,
			wantType: "image/png",
		},
		{
			name:     "unknown data defaults to webp",
			payload:  base64.StdEncoding.EncodeToString([]byte("mystery")),
			wantType: "image/webp",
		},
		{
			name:    "empty payload",
			payload: "",
			wantErr: true,
		},
		{
			name:    "invalid base64",
			payload: "%%%not-base64%%%",
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			data, contentType, err := DecodeImagePayload(testCase.payload)
			if testCase.wantErr {
				if !keai.IsValidationError(err) {
					t.Fatalf("err = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeImagePayload: %v", err)
			}
			if len(data) == 0 {
				t.Fatal("decoded payload empty")
			}
			if contentType != testCase.wantType {
				t.Fatalf("content type = %q, want %q", contentType, testCase.wantType)
			}
		})
	}
}

func TestImageKey(t *testing.T) {
	t.Parallel()

	key := ImageKey("popups", "popup")
	if !strings.HasPrefix(key, "popups/popup-") || !strings.HasSuffix(key, ".webp") {
		t.Fatalf("key = %q", key)
	}
	if key == ImageKey("popups", "popup") {
		t.Fatal("keys must not collide")
	}
}
