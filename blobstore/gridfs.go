package blobstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

// ConnectMongo opens an instrumented MongoDB client and verifies the
// connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// GridFSStore stores uploaded media in a GridFS bucket.
type GridFSStore struct {
	bucket *gridfs.Bucket
}

// NewGridFSStore creates the media bucket on the given database.
func NewGridFSStore(db *mongo.Database) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("media"))
	if err != nil {
		return nil, fmt.Errorf("create gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket}, nil
}

// Put uploads the blob under the given key. Object metadata mirrors what a
// CDN in front of the bucket serves back.
func (s *GridFSStore) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("set gridfs write deadline: %w", err)
		}
	}

	metadata := bson.D{
		{Key: "contentType", Value: opts.ContentType},
		{Key: "contentDisposition", Value: opts.ContentDisposition},
		{Key: "cacheControl", Value: opts.CacheControl},
		{Key: "uploadedAt", Value: time.Now().UTC()},
	}
	if _, err := s.bucket.UploadFromStream(key, r, options.GridFSUpload().SetMetadata(metadata)); err != nil {
		return fmt.Errorf("upload blob %q: %w", key, err)
	}
	return nil
}

var _ Store = (*GridFSStore)(nil)
