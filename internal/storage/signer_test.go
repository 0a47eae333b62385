package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hotline-platform/internal/config"

	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	cases := map[string]string{
		"audio-assets/org-1/greeting.mp3": "greeting.mp3",
		"greeting.mp3":                    "greeting.mp3",
		"/org-1/greeting.mp3/":            "greeting.mp3",
		"  ":                              "",
		"/":                               "",
	}
	for in, want := range cases {
		require.Equal(t, want, ObjectKey(in), "input %q", in)
	}
}

func newTestSigner(t *testing.T) *MinioSigner {
	t.Helper()
	s, err := NewMinioSigner(config.StorageConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "audio-assets",
		Region:    "us-east-1",
	}, nil)
	require.NoError(t, err)
	return s
}

func TestMinioSigner_PresignsLastSegment(t *testing.T) {
	s := newTestSigner(t)

	u, err := s.SignAudioURL(context.Background(), "audio-assets/org-1/greeting.mp3", time.Hour)
	require.NoError(t, err)
	require.Contains(t, u, "/audio-assets/greeting.mp3")
	require.Contains(t, u, "X-Amz-Expires=3600")
	require.Contains(t, u, "X-Amz-Signature=")
}

func TestMinioSigner_RaisesShortTTL(t *testing.T) {
	s := newTestSigner(t)

	u, err := s.SignAudioURL(context.Background(), "greeting.mp3", time.Minute)
	require.NoError(t, err)
	require.True(t, strings.Contains(u, "X-Amz-Expires=3600"), "expected ttl floor in %s", u)
}

func TestMinioSigner_RejectsEmptyLocator(t *testing.T) {
	s := newTestSigner(t)

	_, err := s.SignAudioURL(context.Background(), " / ", time.Hour)
	require.True(t, errors.Is(err, ErrInvalidLocator))
}

func TestNewMinioSigner_RequiresEndpoint(t *testing.T) {
	_, err := NewMinioSigner(config.StorageConfig{Bucket: "audio-assets"}, nil)
	require.Error(t, err)
}
