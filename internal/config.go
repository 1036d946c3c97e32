package internal

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-ini/ini"
)

var cfg *ini.File

func init() {
	dir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("get user home dir error: %v", err)
		cfg = ini.Empty()
		return
	}

	cfg, err = ini.Load(filepath.Join(dir, ".zipview", "config.ini"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("load config error: %v", err)
		}
		cfg = ini.Empty()
		return
	}
}

// BucketConfig contains configuration settings for a specific bucket.
type BucketConfig struct {
	Bucket              string
	AWSProfile          string
	ExpectedBucketOwner *string
}

var cfgCache sync.Map

// ConfigForBucket returns configuration for a specific bucket, keyed by the
// bucket's section in ~/.zipview/config.ini.
func ConfigForBucket(bucket string) (c BucketConfig) {
	if cache, ok := cfgCache.Load(bucket); ok {
		return cache.(BucketConfig)
	}

	sec, err := cfg.GetSection(bucket)
	if err != nil {
		return c
	}

	c.Bucket = bucket
	c.AWSProfile = sec.Key("aws-profile").Value()
	if v := sec.Key("expected-bucket-owner").Value(); v != "" {
		c.ExpectedBucketOwner = aws.String(v)
	}

	cfgCache.Store(bucket, c)
	return c
}
