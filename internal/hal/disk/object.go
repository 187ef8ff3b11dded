package disk

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/uvm/internal/hal"
	"github.com/autopeer-io/uvm/pkg/log"
	"github.com/autopeer-io/uvm/pkg/options"
)

// DefaultObjectTimeout bounds one sector transfer against the object store.
const DefaultObjectTimeout = 10 * time.Second

// ObjectStore is the subset of an S3 bucket the object disk needs.
type ObjectStore interface {
	// Get returns the object at key, or nil data and a nil error when it does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

type minioStore struct {
	client     *minio.Client
	bucketName string
}

// NewMinIOStore connects to the S3 bucket described by opts. A missing bucket
// is created when opts.CreateBucket is set and is an error otherwise.
func NewMinIOStore(ctx context.Context, opts *options.S3Options) (ObjectStore, error) {
	// Self-signed endpoints are common on lab setups.
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify},
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure:    opts.UseSSL,
		Region:    opts.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &minioStore{client: client, bucketName: opts.Bucket}
	if err := s.checkBucket(ctx, opts.CreateBucket); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *minioStore) checkBucket(ctx context.Context, create bool) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if !create {
			return fmt.Errorf("bucket %q does not exist", s.bucketName)
		}
		log.Info("Creating disk bucket", "bucket", s.bucketName)
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (s *minioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *minioStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	return err
}

var (
	_ hal.BlockDevice = (*Object)(nil)
	_ hal.SectorSizer = (*Object)(nil)
)

// Object is a sparse block device storing one object per written sector under
// {prefix}/{lba}. Sectors never written read back as zeros.
type Object struct {
	store      ObjectStore
	prefix     string
	sectorSize int
	sectors    uint64
	timeout    time.Duration
	readOnly   bool
}

// ObjectOption configures an Object disk.
type ObjectOption func(*Object)

// WithSectorSize sets the sector size of the disk.
func WithSectorSize(n int) ObjectOption {
	return func(o *Object) { o.sectorSize = normalize(n) }
}

// WithSectors limits the addressable sectors. Zero leaves the disk unbounded.
func WithSectors(n uint64) ObjectOption {
	return func(o *Object) { o.sectors = n }
}

// WithTimeout bounds each sector transfer.
func WithTimeout(d time.Duration) ObjectOption {
	return func(o *Object) { o.timeout = d }
}

// WithReadOnly rejects every write with hal.ErrNotWritable.
func WithReadOnly(readOnly bool) ObjectOption {
	return func(o *Object) { o.readOnly = readOnly }
}

// NewObject returns a disk whose sectors live in store under prefix.
func NewObject(store ObjectStore, prefix string, opts ...ObjectOption) *Object {
	o := &Object{
		store:      store,
		prefix:     strings.Trim(prefix, "/"),
		sectorSize: hal.SectorSize,
		timeout:    DefaultObjectTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Object) String() string  { return "object:" + o.prefix }
func (o *Object) SectorSize() int { return o.sectorSize }

func (o *Object) ReadSector(lba uint64, buf []byte) error {
	if buf == nil {
		return hal.ErrNoBuffer
	}
	if o.outOfRange(lba) {
		return hal.ErrOutOfRange
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	data, err := o.store.Get(ctx, o.key(lba))
	if err != nil {
		log.Error(err, "Object disk read failed", "key", o.key(lba))
		return hal.ErrNotReadable
	}

	dst := hal.Clamp(buf, o.sectorSize)
	n := copy(dst, data)
	clear(dst[n:])
	return nil
}

// WriteSector stores a whole sector; a short buf is zero-padded.
func (o *Object) WriteSector(lba uint64, buf []byte) error {
	if o.readOnly {
		return hal.ErrNotWritable
	}
	if buf == nil {
		return hal.ErrNoBuffer
	}
	if o.outOfRange(lba) {
		return hal.ErrOutOfRange
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	sector := make([]byte, o.sectorSize)
	copy(sector, buf)
	if err := o.store.Put(ctx, o.key(lba), sector); err != nil {
		log.Error(err, "Object disk write failed", "key", o.key(lba))
		return hal.ErrIO
	}
	return nil
}

func (o *Object) outOfRange(lba uint64) bool {
	return o.sectors > 0 && lba >= o.sectors
}

func (o *Object) key(lba uint64) string {
	if o.prefix == "" {
		return fmt.Sprintf("%d", lba)
	}
	return fmt.Sprintf("%s/%d", o.prefix, lba)
}
