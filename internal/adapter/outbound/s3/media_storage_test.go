package s3

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts       []*s3.PutObjectInput
	bodies     [][]byte
	putErr     error
	presignErr error
	expires    time.Duration
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + *in.Key}, nil
}

func newTestStorage(f *fakeS3, prefix string) *MediaStorage {
	m := newMediaStorage(f, f, &Config{Bucket: "media", KeyPrefix: prefix}, nil)
	m.now = func() time.Time { return time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC) }
	return m
}

func TestMediaStorage_Put(t *testing.T) {
	f := &fakeS3{}
	m := newTestStorage(f, "")

	url, err := m.Put(context.Background(), "req-1", "image", 2, []byte("png-bytes"), "png", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "https://signed.example/omni-media/2026/03/09/req-1/image_2.png", url)
	assert.Equal(t, time.Hour, f.expires)
	require.Len(t, f.puts, 1)
	assert.Equal(t, "media", *f.puts[0].Bucket)
	assert.Equal(t, "image/png", *f.puts[0].ContentType)
	assert.Equal(t, []byte("png-bytes"), f.bodies[0])
	assert.Equal(t, "s3", m.Name())
}

func TestMediaStorage_PresignFallback(t *testing.T) {
	f := &fakeS3{presignErr: errors.New("no signer")}
	m := newTestStorage(f, "/custom/")

	url, err := m.Put(context.Background(), "../evil", "video", 0, []byte("mp4"), "mp4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "s3://media/custom/2026/03/09/_evil/video_0.mp4", url)
}

func TestMediaStorage_PutError(t *testing.T) {
	f := &fakeS3{putErr: errors.New("access denied")}
	m := newTestStorage(f, "")

	_, err := m.Put(context.Background(), "req", "gif", 0, []byte("gif"), "gif", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
