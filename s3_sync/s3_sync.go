package s3_sync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/catalog"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/gologger"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/utils"
	"github.com/UltimateTournament/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	logger = gologger.NewLogger()

	ErrBadSyncURL = errors.New("malformed sync url, want [scheme]://[host]/[bucket]/[prefix]")
)

// Syncer mirrors an object-storage prefix into the local data directory so
// the catalog can serve from plain files. Objects are compared by size only:
// table files are written once by the ingest pipeline, never rewritten.
type Syncer struct {
	client   *minio.Client
	bucket   string
	prefix   string
	dataDir  string
	registry *catalog.Registry
	interval time.Duration

	closeChan chan struct{}
	doneChan  chan struct{}
}

// NewSyncer builds a syncer from a sync URL of the form
// [scheme]://[host]/[bucket]/[prefix]. Returns nil when no URL is configured.
func NewSyncer(syncURL, dataDir string, registry *catalog.Registry, interval time.Duration) (*Syncer, error) {
	if syncURL == "" {
		return nil, nil
	}

	parsed, err := url.Parse(syncURL)
	if err != nil {
		return nil, fmt.Errorf("error in url.Parse: %w", err)
	}
	bucket, prefix, _ := strings.Cut(strings.Trim(parsed.Path, "/"), "/")
	if parsed.Host == "" || bucket == "" {
		return nil, ErrBadSyncURL
	}

	client, err := minio.New(parsed.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(utils.S3_ACCESS_KEY, utils.S3_SECRET_KEY, ""),
		Secure: parsed.Scheme == "https",
		Region: utils.S3_REGION,
	})
	if err != nil {
		return nil, fmt.Errorf("error in minio.New: %w", err)
	}

	return &Syncer{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		dataDir:   dataDir,
		registry:  registry,
		interval:  interval,
		closeChan: make(chan struct{}),
		doneChan:  make(chan struct{}),
	}, nil
}

// SyncOnce mirrors the remote prefix into the data directory and rescans the
// catalog when anything changed.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	changed := 0

	listPrefix := s.prefix
	if listPrefix != "" && !strings.HasSuffix(listPrefix, "/") {
		listPrefix += "/"
	}

	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return fmt.Errorf("error listing objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			continue
		}

		localPath, err := s.localPath(object.Key)
		if err != nil {
			logger.Warn().Err(err).Str("key", object.Key).Msg("skipping object outside data dir")
			continue
		}

		stat, err := os.Stat(localPath)
		if err == nil && stat.Size() == object.Size {
			continue
		}

		if err := s.download(ctx, object.Key, localPath); err != nil {
			return fmt.Errorf("error in s.download: %w", err)
		}
		changed++
	}

	if changed > 0 {
		logger.Info().Int("files", changed).Msg("sync round pulled new files, rescanning catalog")
		if err := s.registry.Rescan(s.dataDir); err != nil {
			return fmt.Errorf("error in registry.Rescan: %w", err)
		}
	}
	return nil
}

// localPath maps an object key to a path under the data dir, rejecting keys
// that would escape it.
func (s *Syncer) localPath(key string) (string, error) {
	rel := strings.TrimPrefix(key, s.prefix)
	rel = strings.TrimPrefix(rel, "/")
	local := filepath.Join(s.dataDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(local, filepath.Clean(s.dataDir)+string(filepath.Separator)) {
		return "", fmt.Errorf("object key %q resolves outside the data dir", key)
	}
	return local, nil
}

// download fetches one object with retries, writing through a temp file so a
// partially-written table is never visible to the catalog.
func (s *Syncer) download(ctx context.Context, key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	tempPath := filepath.Join(filepath.Dir(localPath), utils.GenKSortedID(".sync_"))
	defer os.Remove(tempPath)

	err := backoff.Retry(func() error {
		return s.client.FGetObject(ctx, s.bucket, key, tempPath, minio.GetObjectOptions{})
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx))
	if err != nil {
		return fmt.Errorf("error in FGetObject for %s: %w", key, err)
	}

	if err := os.Rename(tempPath, localPath); err != nil {
		return fmt.Errorf("error in os.Rename: %w", err)
	}
	logger.Debug().Str("key", key).Str("path", localPath).Msg("downloaded object")
	return nil
}

// Start launches the periodic sync loop. An initial round runs immediately.
func (s *Syncer) Start() {
	go func() {
		defer close(s.doneChan)
		s.runOnce()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.closeChan:
				logger.Debug().Msg("sync loop got close signal, exiting")
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()
}

func (s *Syncer) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	if err := s.SyncOnce(ctx); err != nil {
		logger.Error().Err(err).Msg("error in sync round")
	}
}

// Stop signals the loop to exit and waits for the in-flight round to finish.
func (s *Syncer) Stop(ctx context.Context) error {
	close(s.closeChan)
	select {
	case <-s.doneChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
