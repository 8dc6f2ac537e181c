package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

// ErrObjectExists is returned by UploadFile when overwrite is off and the key is taken.
var ErrObjectExists = errors.New("object already exists")

// Location is a parsed s3://bucket/key reference.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string { return "s3://" + l.Bucket + "/" + l.Key }

// Join appends name to the key as a path element.
func (l Location) Join(name string) Location {
	key := strings.TrimSuffix(l.Key, "/")
	if key == "" {
		return Location{Bucket: l.Bucket, Key: name}
	}
	return Location{Bucket: l.Bucket, Key: path.Join(key, name)}
}

// IsS3URI reports whether ref uses the s3:// scheme.
func IsS3URI(ref string) bool { return strings.HasPrefix(ref, "s3://") }

// ParseURI splits s3://bucket/key. The key may be empty for bucket-level prefixes.
func ParseURI(uri string) (Location, error) {
	if !IsS3URI(uri) {
		return Location{}, fmt.Errorf("invalid s3 url: %s", uri)
	}
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("invalid s3 url: %s", uri)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Options tunes the transfer managers.
type Options struct {
	Region            string
	PartSizeMB        int64
	UploadConcurrency int
}

// S3Client wraps the AWS S3 client with upload and download managers.
type S3Client struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

// NewS3Client creates a new S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg)
	return &S3Client{
		client: cli,
		uploader: manager.NewUploader(cli, func(u *manager.Uploader) {
			if opts.PartSizeMB > 0 {
				u.PartSize = opts.PartSizeMB * 1024 * 1024
			}
			if opts.UploadConcurrency > 0 {
				u.Concurrency = opts.UploadConcurrency
			}
		}),
		downloader: manager.NewDownloader(cli),
	}, nil
}

// DownloadToFile fetches loc into dst, creating or truncating it.
func (s *S3Client) DownloadToFile(ctx context.Context, loc Location, dst string) (int64, error) {
	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to download from S3: %w", err)
	}
	log.Info().Str("bucket", loc.Bucket).Str("key", loc.Key).Str("file", filepath.Base(dst)).Int64("size", n).Msg("downloaded s3 pdf to temp")
	return n, nil
}

// Exists reports whether an object is stored at loc.
func (s *S3Client) Exists(ctx context.Context, loc Location) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err == nil {
		return true, nil
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", loc, err)
}

// UploadFile stores the local file at loc with a PDF content type and the given metadata.
func (s *S3Client) UploadFile(ctx context.Context, loc Location, src string, overwrite bool, metadata map[string]string) error {
	if !overwrite {
		exists, err := s.Exists(ctx, loc)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s: %w", loc, ErrObjectExists)
		}
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		Body:        f,
		ContentType: aws.String("application/pdf"),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Debug().Str("bucket", loc.Bucket).Str("key", loc.Key).Msg("uploaded chunk to s3")
	return nil
}

// HeadBucket checks that the bucket is reachable with the current credentials.
func (s *S3Client) HeadBucket(ctx context.Context, bucket string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	return err
}

// IsNotFound reports whether err means the bucket or key does not exist.
func IsNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	var nb *s3types.NoSuchBucket
	return errors.As(err, &nsk) || errors.As(err, &nf) || errors.As(err, &nb)
}
