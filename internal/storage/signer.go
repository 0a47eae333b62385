// Package storage issues time-limited URLs for audio held in object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"hotline-platform/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sony/gobreaker/v2"
)

// MinTTL is the shortest validity handed out for a signed audio URL.
const MinTTL = time.Hour

var ErrInvalidLocator = errors.New("storage: invalid storage locator")

// Signer turns an opaque storage locator into a publicly fetchable URL.
type Signer interface {
	SignAudioURL(ctx context.Context, storagePath string, ttl time.Duration) (string, error)
}

// MinioSigner presigns GET requests against an S3-compatible bucket.
// Presigning is local computation once the region is known, so the breaker mostly
// guards against a misconfigured endpoint that forces bucket-location lookups.
type MinioSigner struct {
	client *minio.Client
	bucket string
	cb     *gobreaker.CircuitBreaker[string]
}

func NewMinioSigner(cfg config.StorageConfig, log *slog.Logger) (*MinioSigner, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("storage: endpoint and bucket are required")
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: minio client: %w", err)
	}

	return &MinioSigner{
		client: client,
		bucket: cfg.Bucket,
		cb:     newCircuitBreaker(log),
	}, nil
}

func newCircuitBreaker(log *slog.Logger) *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:     "audio-signer",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit state changed", "service", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// A bad locator is a data problem, not a storage outage.
			return err == nil || errors.Is(err, ErrInvalidLocator)
		},
	})
}

// SignAudioURL presigns the object named by the last path segment of storagePath.
// ttl is raised to MinTTL when shorter.
func (s *MinioSigner) SignAudioURL(ctx context.Context, storagePath string, ttl time.Duration) (string, error) {
	key := ObjectKey(storagePath)
	if key == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocator, storagePath)
	}
	if ttl < MinTTL {
		ttl = MinTTL
	}

	return s.cb.Execute(func() (string, error) {
		u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
		if err != nil {
			return "", fmt.Errorf("storage: presign %s: %w", key, err)
		}
		return u.String(), nil
	})
}

// ObjectKey extracts the object name from a storage locator. Locators are stored as
// "<bucket-or-prefix>/<object>"; only the final segment addresses the object.
func ObjectKey(storagePath string) string {
	p := strings.Trim(strings.TrimSpace(storagePath), "/")
	if p == "" {
		return ""
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
