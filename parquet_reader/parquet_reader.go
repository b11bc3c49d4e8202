// Package parquet_reader streams the node's three parquet table shapes:
// per-partition allele-frequency tables, per-partition individual-variant
// tables, and the per-dataset individual-profile table.
//
// Partitioned tables are sorted by POS ascending (ties broken by
// REF/ALT/VT), which lets scans stop as soon as rows are past the key.
package parquet_reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

// batchSize is the number of rows decoded per sequential read.
const batchSize = 1024

// parallelism for the underlying parquet column decoders.
const readerConcurrency = 4

var ErrTableRead = errors.New("table file unreadable")

type (
	// VariantKey is the exact-match key into both partitioned table kinds.
	// Pos0 is 0-based.
	VariantKey struct {
		Pos0        int32
		Ref         string
		Alt         string
		VariantType string
	}

	// AlleleFreqRow mirrors one row of an allele-freq-chr{C}.{B}.parquet
	// file. One row per population per variant.
	AlleleFreqRow struct {
		Pos        int32   `parquet:"name=POS, type=INT32"`
		Ref        string  `parquet:"name=REF, type=BYTE_ARRAY, convertedtype=UTF8"`
		Alt        string  `parquet:"name=ALT, type=BYTE_ARRAY, convertedtype=UTF8"`
		Vt         string  `parquet:"name=VT, type=BYTE_ARRAY, convertedtype=UTF8"`
		Population string  `parquet:"name=POPULATION, type=BYTE_ARRAY, convertedtype=UTF8"`
		Af         float64 `parquet:"name=AF, type=DOUBLE"`
		Ac         int32   `parquet:"name=AC, type=INT32"`
		AcHet      int32   `parquet:"name=AC_HET, type=INT32"`
		AcHom      int32   `parquet:"name=AC_HOM, type=INT32"`
		AcHemi     int32   `parquet:"name=AC_HEMI, type=INT32"`
		An         int32   `parquet:"name=AN, type=INT32"`
	}

	// IndividualsRow mirrors one row of an individuals-chr{C}.{B}.parquet
	// file. Individuals holds a range-encoded list of INDEX references.
	IndividualsRow struct {
		Pos         int32  `parquet:"name=POS, type=INT32"`
		Ref         string `parquet:"name=REF, type=BYTE_ARRAY, convertedtype=UTF8"`
		Alt         string `parquet:"name=ALT, type=BYTE_ARRAY, convertedtype=UTF8"`
		Vt          string `parquet:"name=VT, type=BYTE_ARRAY, convertedtype=UTF8"`
		Individuals string `parquet:"name=INDIVIDUALS, type=BYTE_ARRAY, convertedtype=UTF8"`
	}

	// ProfileRow mirrors one row of a dataset's individuals.parquet table.
	ProfileRow struct {
		Index int32  `parquet:"name=INDEX, type=INT32"`
		Sex   string `parquet:"name=SEX, type=BYTE_ARRAY, convertedtype=UTF8"`
		Age   string `parquet:"name=AGE, type=BYTE_ARRAY, convertedtype=UTF8"`
	}
)

func (k VariantKey) matchesAF(row AlleleFreqRow) bool {
	return row.Pos == k.Pos0 && row.Ref == k.Ref && row.Alt == k.Alt && row.Vt == k.VariantType
}

func (k VariantKey) matchesIndividuals(row IndividualsRow) bool {
	return row.Pos == k.Pos0 && row.Ref == k.Ref && row.Alt == k.Alt && row.Vt == k.VariantType
}

// ScanAlleleFrequencies returns every population row matching the key, in
// file order. A missing key is not an error: the slice is just empty.
func ScanAlleleFrequencies(ctx context.Context, path string, key VariantKey) ([]AlleleFreqRow, error) {
	var matches []AlleleFreqRow
	err := scan(ctx, path, new(AlleleFreqRow), func(pr *reader.ParquetReader, remaining int) (bool, error) {
		rows := make([]AlleleFreqRow, remaining)
		if err := pr.Read(&rows); err != nil {
			return false, fmt.Errorf("error in pr.Read: %w", err)
		}
		for _, row := range rows {
			if key.matchesAF(row) {
				matches = append(matches, row)
			} else if row.Pos > key.Pos0 {
				// Sorted past the key, nothing further can match
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// ScanIndividuals returns the range-encoded individual list for the key. The
// generation step intends one row per key; if the file violates that, the
// first row in file order wins deterministically.
func ScanIndividuals(ctx context.Context, path string, key VariantKey) (encoded string, found bool, err error) {
	err = scan(ctx, path, new(IndividualsRow), func(pr *reader.ParquetReader, remaining int) (bool, error) {
		rows := make([]IndividualsRow, remaining)
		if err := pr.Read(&rows); err != nil {
			return false, fmt.Errorf("error in pr.Read: %w", err)
		}
		for _, row := range rows {
			if key.matchesIndividuals(row) {
				encoded = row.Individuals
				found = true
				return false, nil
			}
			if row.Pos > key.Pos0 {
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return "", false, err
	}
	return encoded, found, nil
}

// ReadProfiles loads a dataset's whole individual-profile table. Profile
// tables are small (one row per individual) and unpartitioned.
func ReadProfiles(ctx context.Context, path string) ([]ProfileRow, error) {
	var profiles []ProfileRow
	err := scan(ctx, path, new(ProfileRow), func(pr *reader.ParquetReader, remaining int) (bool, error) {
		rows := make([]ProfileRow, remaining)
		if err := pr.Read(&rows); err != nil {
			return false, fmt.Errorf("error in pr.Read: %w", err)
		}
		profiles = append(profiles, rows...)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// scan opens the file and hands sequential batches to readBatch until it
// reports done, the file is exhausted, or the context is cancelled. Any
// open/decode failure is wrapped in ErrTableRead so callers can isolate the
// dataset without aborting the whole query.
func scan(ctx context.Context, path string, rowType any, readBatch func(pr *reader.ParquetReader, remaining int) (bool, error)) error {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrTableRead, path, err.Error())
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, rowType, readerConcurrency)
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrTableRead, path, err.Error())
	}
	defer pr.ReadStop()

	total := int(pr.GetNumRows())
	for offset := 0; offset < total; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		remaining := total - offset
		if remaining > batchSize {
			remaining = batchSize
		}
		more, err := readBatch(pr, remaining)
		if err != nil {
			return fmt.Errorf("%w: %s: %s", ErrTableRead, path, err.Error())
		}
		if !more {
			break
		}
	}
	return nil
}
