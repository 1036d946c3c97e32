// Package s3source implements zipview.ByteSource over ranged S3 GetObject.
package s3source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client abstracts the S3 APIs that are needed to implement Source.
type Client interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Options customises NewSource.
type Options struct {
	// CtxFn returns a context.Context to be used with every GetObject or
	// HeadObject call.
	//
	// By default, context.Background is used.
	CtxFn func() context.Context

	// ModifyGetObjectInput can be used to modify the GetObject input
	// parameters such as adding ExpectedBucketOwner.
	//
	// Its return value will be used to make the GetObject call.
	ModifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput

	// ModifyHeadObjectInput can be used to modify the HeadObject input
	// parameters such as adding ExpectedBucketOwner.
	//
	// Its return value will be used to make the HeadObject call, which
	// only happens when the size was not given via WithSize.
	ModifyHeadObjectInput func(*s3.HeadObjectInput) *s3.HeadObjectInput

	size int64
}

// WithSize skips the initial HeadObject call by declaring the object's size.
func WithSize(size int64) func(*Options) {
	return func(opts *Options) {
		opts.size = size
	}
}

// Source implements zipview.ByteSource with ranged GetObject calls against
// one S3 object. Safe for concurrent reads.
type Source struct {
	client               Client
	bucket, key          string
	ctxFn                func() context.Context
	modifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput
	size                 int64
}

// NewSource returns a Source with the given bucket and key.
//
// Unless WithSize is given, the client is used to determine a valid size for
// the object with one HeadObject call.
func NewSource(client Client, bucket, key string, optFns ...func(*Options)) (*Source, error) {
	opts := &Options{
		CtxFn: context.Background,
		ModifyGetObjectInput: func(input *s3.GetObjectInput) *s3.GetObjectInput {
			return input
		},
		ModifyHeadObjectInput: func(input *s3.HeadObjectInput) *s3.HeadObjectInput {
			return input
		},
		size: -1,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	s := &Source{
		client:               client,
		bucket:               bucket,
		key:                  key,
		ctxFn:                opts.CtxFn,
		modifyGetObjectInput: opts.ModifyGetObjectInput,
		size:                 opts.size,
	}

	if s.size < 0 {
		headObjectOutput, err := client.HeadObject(opts.CtxFn(), opts.ModifyHeadObjectInput(&s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}))
		if err != nil {
			return nil, fmt.Errorf("determine object size error: %w", err)
		}

		s.size = aws.ToInt64(headObjectOutput.ContentLength)
	}

	return s, nil
}

// Size returns the total size of the S3 object.
func (s *Source) Size() int64 {
	return s.size
}

func (s *Source) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("read at negative offset %d", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	m := int64(len(p))
	if m == 0 {
		return 0, nil
	}

	getObjectOutput, err := s.client.GetObject(s.ctxFn(), s.modifyGetObjectInput(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+m-1)),
	}))
	if err != nil {
		return 0, err
	}

	n, err = io.ReadFull(getObjectOutput.Body, p)
	_ = getObjectOutput.Body.Close()
	if errors.Is(err, io.ErrUnexpectedEOF) && off+int64(n) == s.size {
		// short read at end of object is an io.ReaderAt EOF.
		err = io.EOF
	}
	return n, err
}
