package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/parquet_accumulator"
	"github.com/danthegoodman1/fedb/s3_helper"
	"github.com/danthegoodman1/fedb/utils"
	"github.com/xitongsys/parquet-go-source/local"
	s3_pq "github.com/xitongsys/parquet-go-source/s3"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// ParquetSource reads a parquet file from local disk (Path) or the configured
// bucket (Key). Fields restores the exact column names, the reader may
// change their case.
type ParquetSource struct {
	Path   string
	Key    string
	Fields []string
}

func (s *ParquetSource) Rows(ctx context.Context) ([]engine.Record, error) {
	var (
		fr  source.ParquetFile
		err error
	)
	if s.Key != "" {
		client, cerr := s3_helper.NewClient()
		if cerr != nil {
			return nil, fmt.Errorf("error in s3_helper.NewClient: %w", cerr)
		}
		fr, err = s3_pq.NewS3FileReaderWithParams(ctx, s3_pq.S3FileReaderParams{
			Bucket:   utils.S3_BUCKET_NAME,
			Key:      s.Key,
			S3Client: client,
		})
	} else {
		fr, err = local.NewLocalFileReader(s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("error opening parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 4)
	if err != nil {
		return nil, fmt.Errorf("error in reader.NewParquetReader: %w", err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	res, err := pr.ReadByNumber(num)
	if err != nil {
		return nil, fmt.Errorf("error in pr.ReadByNumber: %w", err)
	}

	rows := make([]engine.Record, 0, len(res))
	for _, item := range res {
		// struct -> map through json so optional pointers and lists flatten out
		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("error in json.Marshal: %w", err)
		}
		var raw engine.Record
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("error in json.Unmarshal: %w", err)
		}
		rows = append(rows, s.restoreNames(raw))
	}
	logger.Debug().Int("rows", len(rows)).Msg("read parquet source")
	return rows, nil
}

func (s *ParquetSource) restoreNames(raw engine.Record) engine.Record {
	if len(s.Fields) == 0 {
		return raw
	}
	out := make(engine.Record, len(raw))
	for k, v := range raw {
		name := k
		for _, f := range s.Fields {
			if strings.EqualFold(f, k) {
				name = f
				break
			}
		}
		out[name] = v
	}
	return out
}

// WriteParquet writes every row of t as a parquet file. Nested table fields
// are not supported.
func WriteParquet(w io.Writer, t *engine.Table) error {
	accumulator, err := parquet_accumulator.NewParquetAccumulator(t.Schema())
	if err != nil {
		return fmt.Errorf("error in NewParquetAccumulator: %w", err)
	}
	rows := t.Data()
	for _, row := range rows {
		accumulator.WriteRow(row)
	}
	parquetSchema, err := accumulator.GetSchemaString()
	if err != nil {
		return fmt.Errorf("error in GetSchemaString: %w", err)
	}

	pw, err := writer.NewJSONWriterFromWriter(parquetSchema, w, 4)
	if err != nil {
		return fmt.Errorf("error in NewJSONWriterFromWriter: %w", err)
	}
	for _, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("error in json.Marshal: %w", err)
		}
		if err := pw.Write(string(b)); err != nil {
			return fmt.Errorf("error in pw.Write for row %s: %w", string(b), err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("error in pw.WriteStop: %w", err)
	}
	return nil
}

// ExportToS3 writes t as parquet under prefix with a k-sorted file name and
// returns the key.
func ExportToS3(ctx context.Context, prefix string, t *engine.Table) (string, error) {
	var b bytes.Buffer
	if err := WriteParquet(&b, t); err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s.parquet", strings.TrimSuffix(prefix, "/"), utils.GenKSortedID(""))
	if prefix == "" {
		key = strings.TrimPrefix(key, "/")
	}
	if _, err := s3_helper.WriteBytesToS3(ctx, key, &b, nil); err != nil {
		return "", fmt.Errorf("error in WriteBytesToS3: %w", err)
	}
	return key, nil
}
