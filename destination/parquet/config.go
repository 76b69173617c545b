package parquet

import (
	"fmt"

	pq "github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/datazip-inc/tap-apparel-magic/utils"
)

const (
	DefaultMaxRowsPerFile = 1_000_000
	DefaultCompression    = "snappy"
)

type Config struct {
	Path      string `json:"local_path" validate:"required"` // Local directory the files are written into
	Bucket    string `json:"s3_bucket,omitempty"`
	Region    string `json:"s3_region,omitempty"`
	AccessKey string `json:"s3_access_key,omitempty"`
	SecretKey string `json:"s3_secret_key,omitempty"`
	Prefix    string `json:"s3_path,omitempty"`
	// S3 endpoint for custom S3-compatible services (like MinIO)
	S3Endpoint string `json:"s3_endpoint,omitempty" validate:"omitempty,url"`

	Compression    string `json:"compression,omitempty" validate:"omitempty,oneof=snappy gzip zstd lz4 none uncompressed"`
	MaxRowsPerFile int64  `json:"max_rows_per_file,omitempty" validate:"gte=0"`
	// files are uploaded with this many concurrent uploads
	UploadConcurrency int `json:"upload_concurrency,omitempty" validate:"gte=0"`
}

func (c *Config) Validate() error {
	if err := utils.Validate(c); err != nil {
		return err
	}

	if c.Bucket != "" && c.Region == "" && c.S3Endpoint == "" {
		return fmt.Errorf("s3_region is required when s3_bucket is set")
	}

	if c.Compression == "" {
		c.Compression = DefaultCompression
	}
	if c.MaxRowsPerFile == 0 {
		c.MaxRowsPerFile = DefaultMaxRowsPerFile
	}
	if c.UploadConcurrency == 0 {
		c.UploadConcurrency = 4
	}

	return nil
}

func (c *Config) UploadEnabled() bool {
	return c.Bucket != ""
}

func (c *Config) codec() compress.Codec {
	switch c.Compression {
	case "gzip":
		return &pq.Gzip
	case "zstd":
		return &pq.Zstd
	case "lz4":
		return &pq.Lz4Raw
	case "none", "uncompressed":
		return &pq.Uncompressed
	default:
		return &pq.Snappy
	}
}
