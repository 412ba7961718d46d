package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/egorairo/ShelfSense/gaps"
	"github.com/egorairo/ShelfSense/sales"
)

type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3SalesState reads a sales CSV stored as an S3 object.
type S3SalesState struct {
	bucket string
	key    string
	s3     s3GetObjectAPI
}

func NewS3SalesState(s3Client s3GetObjectAPI, bucket, key string) *S3SalesState {
	return &S3SalesState{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

func (s *S3SalesState) Load(ctx context.Context) ([]gaps.SalesRecord, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get sales object from S3: %w", err)
	}
	defer resp.Body.Close()

	records, err := sales.ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return records, nil
}
