package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nguyengg/zipview"
	"github.com/nguyengg/zipview/httpsource"
	"github.com/nguyengg/zipview/s3source"
)

// OpenSource resolves the container argument to a ByteSource.
//
// The argument may be a local file path, an http(s) URL, or an s3://bucket/key
// URI. Remote sources are wrapped with a chunked LRU cache since every read
// against them is a network round trip. The returned io.Closer must be closed
// once all reads are done; it is never nil.
func OpenSource(ctx context.Context, arg string) (zipview.ByteSource, io.Closer, error) {
	switch {
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		src, err := httpsource.NewSource(arg)
		if err != nil {
			return nil, nil, fmt.Errorf(`open "%s" error: %w`, arg, err)
		}

		cached, err := zipview.NewCachingSource(src)
		return cached, nopCloser{}, err

	case strings.HasPrefix(arg, "s3://"):
		bucket, key, err := parseS3URI(arg)
		if err != nil {
			return nil, nil, err
		}

		bucketCfg := ConfigForBucket(bucket)

		var loadOpts []func(*config.LoadOptions) error
		if bucketCfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(bucketCfg.AWSProfile))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("load AWS config error: %w", err)
		}

		src, err := s3source.NewSource(s3.NewFromConfig(awsCfg), bucket, key, func(opts *s3source.Options) {
			opts.CtxFn = func() context.Context { return ctx }
			if bucketCfg.ExpectedBucketOwner != nil {
				opts.ModifyGetObjectInput = func(input *s3.GetObjectInput) *s3.GetObjectInput {
					input.ExpectedBucketOwner = bucketCfg.ExpectedBucketOwner
					return input
				}
				opts.ModifyHeadObjectInput = func(input *s3.HeadObjectInput) *s3.HeadObjectInput {
					input.ExpectedBucketOwner = bucketCfg.ExpectedBucketOwner
					return input
				}
			}
		})
		if err != nil {
			return nil, nil, fmt.Errorf(`open "%s" error: %w`, arg, err)
		}

		cached, err := zipview.NewCachingSource(src)
		return cached, nopCloser{}, err

	default:
		f, err := os.Open(arg)
		if err != nil {
			return nil, nil, fmt.Errorf(`open file "%s" error: %w`, arg, err)
		}

		src, err := zipview.NewFileSource(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, err
		}

		return src, f, nil
	}
}

func parseS3URI(arg string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(arg, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf(`invalid S3 URI "%s"; expected s3://bucket/key`, arg)
	}
	return bucket, key, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
