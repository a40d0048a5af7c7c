package results

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectStore struct {
	bucketExists bool
	madeBucket   string
	objects      map[string][]byte
	contentTypes map[string]string
}

func (f *fakeObjectStore) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeObjectStore) MakeBucket(_ context.Context, bucketName string, _ minio.MakeBucketOptions) error {
	f.madeBucket = bucketName
	f.bucketExists = true
	return nil
}

func (f *fakeObjectStore) PutObject(_ context.Context, _ string, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
		f.contentTypes = map[string]string{}
	}
	f.objects[objectName] = data
	f.contentTypes[objectName] = opts.ContentType
	return minio.UploadInfo{Key: objectName, Size: objectSize}, nil
}

func TestObjectStoreSinkUploadsOneReportPerRun(t *testing.T) {
	store := &fakeObjectStore{}
	sink := newObjectStoreSink(store, "benchmarks", "nightly")

	err := sink.Publish(context.Background(), []Datapoint{
		sampleDatapoint("run-1", "richards", 10),
		sampleDatapoint("run-2", "richards", 11),
		sampleDatapoint("run-1", "deltablue", 20),
	})
	require.NoError(t, err)

	assert.Equal(t, "benchmarks", store.madeBucket)
	require.Len(t, store.objects, 2)
	assert.Equal(t, "application/json", store.contentTypes["nightly/octane/run-1.json"])

	var report Report
	require.NoError(t, json.Unmarshal(store.objects["nightly/octane/run-1.json"], &report))
	require.Len(t, report.Queries, 2)
	assert.Equal(t, "deltablue", report.Queries[1].Benchmark)
}

func TestObjectStoreSinkSkipsEmptyPublish(t *testing.T) {
	store := &fakeObjectStore{}
	sink := newObjectStoreSink(store, "benchmarks", "")

	require.NoError(t, sink.Publish(context.Background(), nil))
	assert.Empty(t, store.madeBucket)
	assert.Empty(t, store.objects)
}
