package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/yumyai/hlalocus/internal/util"
	"github.com/yumyai/hlalocus/logger"
)

const scheme = "s3://"

var (
	ErrNoClient = errors.New("s3 path given but no s3 client configured")
	ErrBadURL   = errors.New("invalid s3 url")
	ErrStageDir = errors.New("unusable stage directory")
)

// S3Config holds the client settings. Credentials fall back to the default
// chain when AccessKeyID is empty.
type S3Config struct {
	Region          string
	Endpoint        string // optional, e.g. MinIO
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	HTTPClient      *http.Client // optional, tests swap the transport
}

func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	}), nil
}

func IsRemote(path string) bool {
	return strings.HasPrefix(path, scheme)
}

// ParseURL splits s3://bucket/key.
func ParseURL(path string) (bucket, key string, err error) {
	if !IsRemote(path) {
		return "", "", fmt.Errorf("%w: %s", ErrBadURL, path)
	}
	bucket, key, _ = strings.Cut(strings.TrimPrefix(path, scheme), "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %s", ErrBadURL, path)
	}
	return bucket, key, nil
}

// Stager moves pipeline files between object storage and the local disk.
// Local paths pass through untouched, so a Stager without a Client works
// for purely local runs.
type Stager struct {
	Dir    string
	Client *s3.Client
}

// Localize returns a local path for path, downloading s3 objects into Dir.
// An object already downloaded is reused.
func (s *Stager) Localize(ctx context.Context, path string) (string, error) {
	if !IsRemote(path) {
		return path, nil
	}
	bucket, key, err := ParseURL(path)
	if err != nil {
		return "", err
	}
	if err := s.ensureDir(); err != nil {
		return "", err
	}
	local := filepath.Join(s.Dir, bucket, filepath.FromSlash(key))
	if util.ValidFile(local) {
		logger.Debug("Using staged copy", zap.String("url", path), zap.String("path", local))
		return local, nil
	}
	if s.Client == nil {
		return "", ErrNoClient
	}

	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return "", fmt.Errorf("get %s: %w", path, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(local), 0o750); err != nil {
		return "", fmt.Errorf("create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(local), ".stage-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, out.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("download %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		return "", err
	}
	logger.Info("Staged input", zap.String("url", path), zap.String("path", local), zap.Int64("bytes", n))
	return local, nil
}

// Publish uploads local to dest when dest is an s3 url. Any other dest is
// taken to be local already.
func (s *Stager) Publish(ctx context.Context, local, dest string) error {
	if !IsRemote(dest) {
		return nil
	}
	bucket, key, err := ParseURL(dest)
	if err != nil {
		return err
	}
	if s.Client == nil {
		return ErrNoClient
	}

	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := s.Client.PutObject(ctx, &s3.PutObjectInput{Bucket: &bucket, Key: &key, Body: f}); err != nil {
		return fmt.Errorf("put %s: %w", dest, err)
	}
	logger.Info("Published output", zap.String("path", local), zap.String("url", dest))
	return nil
}

// LocalOutput is where a command should write before publishing to dest.
func (s *Stager) LocalOutput(dest string) (string, error) {
	if !IsRemote(dest) {
		return dest, nil
	}
	bucket, key, err := ParseURL(dest)
	if err != nil {
		return "", err
	}
	if err := s.ensureDir(); err != nil {
		return "", err
	}
	local := filepath.Join(s.Dir, "out", bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(local), 0o750); err != nil {
		return "", fmt.Errorf("create dirs: %w", err)
	}
	return local, nil
}

// ensureDir creates Dir on first use and rejects a Dir that is not a directory.
func (s *Stager) ensureDir() error {
	if util.DirExists(s.Dir) {
		return nil
	}
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStageDir, s.Dir, err)
	}
	return nil
}
