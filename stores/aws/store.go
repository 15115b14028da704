package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"path"

	"canvas-collab/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const keyPrefix = "canvases/"

type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	s3Client := s3.NewFromConfig(cfg)

	return &s3Store{
		s3Client: s3Client,
		bucket:   bucketName,
	}
}

func (s *s3Store) canvasKey(id string) string {
	return path.Join(keyPrefix, id)
}

func (s *s3Store) LoadAll(ctx context.Context) ([]core.Record, error) {
	var recs []core.Record

	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, object := range page.Contents {
			resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    object.Key,
			})
			if err != nil {
				log.Printf("warn: failed to get object %s: %v", *object.Key, err)
				continue
			}
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				log.Printf("warn: failed to read object body %s: %v", *object.Key, err)
				continue
			}

			var rec core.Record
			if err := json.Unmarshal(data, &rec); err != nil {
				log.Printf("warn: failed to unmarshal canvas %s: %v", *object.Key, err)
				continue
			}
			recs = append(recs, rec)
		}
	}

	return recs, nil
}

func (s *s3Store) Save(ctx context.Context, rec core.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.canvasKey(rec.ID)),
		Body:   bytes.NewReader(data),
	})
	return err
}
