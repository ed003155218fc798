package datasource

import (
	"context"
	"fmt"

	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/s3_helper"
)

// S3Source reads a JSON array or NDJSON object from the configured bucket.
type S3Source struct {
	Key string
}

func (s *S3Source) Rows(ctx context.Context) ([]engine.Record, error) {
	b, err := s3_helper.ReadBytesFromS3(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("error in ReadBytesFromS3: %w", err)
	}
	rows, err := DecodeRows(b)
	if err != nil {
		return nil, fmt.Errorf("error decoding s3 object %s: %w", s.Key, err)
	}
	return rows, nil
}
