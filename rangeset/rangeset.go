// Package rangeset codes compact individual-reference lists such as
// "4,11,22-43,50" to and from bitmaps of individual indices.
package rangeset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

var ErrBadRangeToken = errors.New("malformed range token")

// Decode expands a comma-separated list of non-negative integers and
// inclusive lo-hi ranges into a bitmap. Decoding is total: any malformed
// token fails the whole string, nothing is silently dropped.
func Decode(s string) (*roaring.Bitmap, error) {
	bm := roaring.New()
	for _, token := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(token, "-")
		if !isRange {
			v, err := parseIndex(lo)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrBadRangeToken, token)
			}
			bm.Add(v)
			continue
		}

		start, err := parseIndex(lo)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadRangeToken, token)
		}
		end, err := parseIndex(hi)
		if err != nil || end < start {
			return nil, fmt.Errorf("%w: %q", ErrBadRangeToken, token)
		}
		bm.AddRange(uint64(start), uint64(end)+1)
	}
	return bm, nil
}

// Encode renders the bitmap in the canonical minimal run-length form, with
// contiguous runs of two or more collapsed to "lo-hi".
func Encode(bm *roaring.Bitmap) string {
	var sb strings.Builder
	it := bm.Iterator()

	first := true
	for it.HasNext() {
		runStart := it.Next()
		runEnd := runStart
		for it.HasNext() && it.PeekNext() == runEnd+1 {
			runEnd = it.Next()
		}

		if !first {
			sb.WriteByte(',')
		}
		first = false

		if runStart == runEnd {
			sb.WriteString(strconv.FormatUint(uint64(runStart), 10))
		} else {
			sb.WriteString(strconv.FormatUint(uint64(runStart), 10))
			sb.WriteByte('-')
			sb.WriteString(strconv.FormatUint(uint64(runEnd), 10))
		}
	}
	return sb.String()
}

func parseIndex(s string) (uint32, error) {
	if s == "" {
		return 0, errors.New("empty token")
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
