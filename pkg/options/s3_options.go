package options

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

var _ IOptions = (*S3Options)(nil)

// S3Options describes the bucket backing the object disk. Each sector is one
// object, so any S3-compatible store works.
type S3Options struct {
	// Endpoint is host[:port], without a scheme; UseSSL selects https.
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access-key-id" mapstructure:"access-key-id"`
	SecretAccessKey string `json:"secret-access-key" mapstructure:"secret-access-key"`
	Region          string `json:"region" mapstructure:"region"`
	UseSSL          bool   `json:"use-ssl" mapstructure:"use-ssl"`

	Bucket string `json:"bucket" mapstructure:"bucket"`
	// CreateBucket creates Bucket at boot when it does not exist.
	CreateBucket bool `json:"create-bucket" mapstructure:"create-bucket"`

	// InsecureSkipVerify accepts self-signed endpoint certificates.
	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`
}

func NewS3Options() *S3Options {
	return &S3Options{
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Region:          "us-east-1",
		Bucket:          "uvm-disks",
		CreateBucket:    true,
	}
}

func (o *S3Options) Validate() []error {
	var errs []error

	switch {
	case o.Endpoint == "":
		errs = append(errs, fmt.Errorf("--s3.endpoint must not be empty"))
	case strings.Contains(o.Endpoint, "://"):
		errs = append(errs, fmt.Errorf("--s3.endpoint must not carry a scheme, use --s3.use-ssl instead: %q", o.Endpoint))
	}
	if o.Bucket == "" {
		errs = append(errs, fmt.Errorf("--s3.bucket must not be empty"))
	}
	return errs
}

func (o *S3Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, "s3.endpoint", o.Endpoint, "S3 endpoint as host[:port] (e.g. s3.amazonaws.com or minio.local:9000).")
	fs.StringVar(&o.AccessKeyID, "s3.access-key-id", o.AccessKeyID, "S3 access key ID.")
	fs.StringVar(&o.SecretAccessKey, "s3.secret-access-key", o.SecretAccessKey, "S3 secret access key.")
	fs.StringVar(&o.Region, "s3.region", o.Region, "S3 region.")
	fs.BoolVar(&o.UseSSL, "s3.use-ssl", o.UseSSL, "Connect to the endpoint over https.")
	fs.StringVar(&o.Bucket, "s3.bucket", o.Bucket, "Bucket holding one object per disk sector.")
	fs.BoolVar(&o.CreateBucket, "s3.create-bucket", o.CreateBucket, "Create the bucket at boot if it does not exist.")
	fs.BoolVar(&o.InsecureSkipVerify, "s3.insecure-skip-verify", o.InsecureSkipVerify, "Accept self-signed S3 endpoint certificates.")
}
