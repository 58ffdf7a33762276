package history

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"benchkeep/internal/errs"

	"github.com/evergreen-ci/pail"
	"github.com/pkg/errors"
)

// Source is where a history document lives. Read returns a NotFoundError
// when the document does not exist yet.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	String() string
}

// FileSource stores the history document on the local filesystem.
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("history file %s", s.Path)
		}
		return nil, errors.Wrapf(err, "reading %s", s.Path)
	}
	return data, nil
}

func (s *FileSource) Write(_ context.Context, data []byte) error {
	// Create parent directories if needed
	dir := filepath.Dir(s.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}

	return errors.Wrapf(os.WriteFile(s.Path, data, 0644), "writing %s", s.Path)
}

func (s *FileSource) String() string { return s.Path }

// BucketType selects the pail backend of a BucketSource.
type BucketType string

const (
	BucketLocal BucketType = "local"
	BucketS3    BucketType = "s3"
)

// BucketOptions describe where a bucket-backed history document lives.
type BucketOptions struct {
	Type   BucketType
	Name   string // Bucket name, or directory path for local buckets
	Prefix string
	Region string // S3 only
	Key    string // Object key of the document within the bucket
}

// BucketSource stores the history document as a single object in a pail
// bucket.
type BucketSource struct {
	bucket pail.Bucket
	key    string
	desc   string
}

// NewBucketSource opens the bucket described by opts and checks that it is
// reachable.
func NewBucketSource(ctx context.Context, opts BucketOptions) (*BucketSource, error) {
	if opts.Key == "" {
		return nil, errs.Config("data-file", errors.New("bucket key must not be empty"))
	}

	var (
		b   pail.Bucket
		err error
	)

	switch opts.Type {
	case BucketLocal, "":
		if err = os.MkdirAll(opts.Name, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating local bucket %s", opts.Name)
		}
		b, err = pail.NewLocalBucket(pail.LocalOptions{
			Path:   opts.Name,
			Prefix: opts.Prefix,
		})
	case BucketS3:
		b, err = pail.NewS3Bucket(ctx, pail.S3Options{
			Name:        opts.Name,
			Prefix:      opts.Prefix,
			Region:      opts.Region,
			Permissions: pail.S3PermissionsPrivate,
		})
	default:
		return nil, errs.Config("data-bucket-type", errors.Errorf("unknown bucket type %q", opts.Type))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s bucket %s", opts.Type, opts.Name)
	}

	if err = b.Check(ctx); err != nil {
		return nil, errors.Wrapf(err, "checking bucket %s", opts.Name)
	}

	return NewBucketSourceFrom(b, opts.Key, string(opts.Type)+"://"+strings.TrimSuffix(opts.Name, "/")+"/"+opts.Key), nil
}

// NewBucketSourceFrom wraps an already opened bucket.
func NewBucketSourceFrom(b pail.Bucket, key, desc string) *BucketSource {
	return &BucketSource{bucket: b, key: key, desc: desc}
}

func (s *BucketSource) Read(ctx context.Context) ([]byte, error) {
	r, err := s.bucket.Get(ctx, s.key)
	if err != nil {
		if pail.IsKeyNotFoundError(err) || os.IsNotExist(errors.Cause(err)) {
			return nil, errs.NotFound("history object %s", s.desc)
		}
		return nil, errors.Wrapf(err, "getting %s", s.desc)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.desc)
	}
	return data, nil
}

func (s *BucketSource) Write(ctx context.Context, data []byte) error {
	return errors.Wrapf(s.bucket.Put(ctx, s.key, bytes.NewReader(data)), "putting %s", s.desc)
}

func (s *BucketSource) String() string { return s.desc }

// LoadFrom reads and decodes the document held by src. An absent document
// yields an empty history.
func LoadFrom(ctx context.Context, src Source) (History, error) {
	data, err := src.Read(ctx)
	if err != nil {
		if errs.IsNotFound(err) {
			return New(), nil
		}
		return History{}, err
	}

	return decode(src.String(), data)
}

// SaveTo serializes h and writes it to src.
func SaveTo(ctx context.Context, src Source, h History) error {
	data, err := Serialize(h)
	if err != nil {
		return err
	}
	return src.Write(ctx, data)
}
