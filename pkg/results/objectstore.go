package results

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type ObjectStoreOptions struct {
	Endpoint        string
	AccessKeyId     string
	SecretAccessKey string
	UseSsl          bool
	Bucket          string

	// Prefix is put in front of every object name.
	Prefix string
}

type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectStoreSink uploads one report per run to an S3 compatible object store.
type ObjectStoreSink struct {
	client objectStore
	bucket string
	prefix string
}

// NewObjectStoreSink creates a minio backed sink.
func NewObjectStoreSink(opts ObjectStoreOptions) (*ObjectStoreSink, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyId, opts.SecretAccessKey, ""),
		Secure: opts.UseSsl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return newObjectStoreSink(client, opts.Bucket, opts.Prefix), nil
}

func newObjectStoreSink(client objectStore, bucket string, prefix string) *ObjectStoreSink {
	return &ObjectStoreSink{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (o *ObjectStoreSink) Name() string {
	return "objectstore"
}

// Publish uploads the datapoints of each run as <prefix>/<suite>/<run-uuid>.json.
func (o *ObjectStoreSink) Publish(ctx context.Context, datapoints []Datapoint) error {
	if len(datapoints) == 0 {
		return nil
	}
	exists, err := o.client.BucketExists(ctx, o.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", o.bucket, err)
	}
	if !exists {
		if err := o.client.MakeBucket(ctx, o.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", o.bucket, err)
		}
	}

	order, groups := groupByRun(datapoints)
	for _, runUuid := range order {
		group := groups[runUuid]
		data, err := json.Marshal(Report{Queries: group})
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		objectName := path.Join(o.prefix, group[0].Suite, runUuid+".json")
		info, err := o.client.PutObject(ctx, o.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
		if err != nil {
			return fmt.Errorf("failed to upload report %s: %w", objectName, err)
		}
		log.Debugf("uploaded report %s (%d bytes)", info.Key, info.Size)
	}
	return nil
}

func (o *ObjectStoreSink) Close() error {
	return nil
}
