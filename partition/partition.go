package partition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// BucketSize is the width of one partition window in base pairs. Table files
// are sharded per chromosome into windows of this many positions.
const BucketSize = 1_000_000

type (
	// Assembly is a reference genome build. Values are case-sensitive and
	// match the per-dataset directory names on disk.
	Assembly string

	// Key identifies one table-file shard: a chromosome plus a
	// one-million-base window index. Keys are pure functions of their
	// inputs and never mutated.
	Key struct {
		Chromosome string
		Bucket     int64
	}
)

const (
	AssemblyGRCh37 Assembly = "GRCh37"
	AssemblyGRCh38 Assembly = "GRCh38"
)

var (
	Assemblies = []Assembly{AssemblyGRCh37, AssemblyGRCh38}

	ErrUnknownAssembly   = errors.New("unknown assembly")
	ErrUnknownChromosome = errors.New("unknown chromosome")
	ErrInvalidPosition   = errors.New("invalid position")
)

func ParseAssembly(s string) (Assembly, error) {
	for _, a := range Assemblies {
		if s == string(a) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAssembly, s)
}

// NormalizeChromosome validates a chromosome name against the supported set
// (1..22, X, Y, M) and returns its canonical form. X/Y/M are accepted in any
// case and MT is an alias for M.
func NormalizeChromosome(raw string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	switch c {
	case "X", "Y", "M":
		return c, nil
	case "MT":
		return "M", nil
	}
	n, err := strconv.Atoi(c)
	if err != nil || n < 1 || n > 22 {
		return "", fmt.Errorf("%w: %q", ErrUnknownChromosome, raw)
	}
	return strconv.Itoa(n), nil
}

// ZeroBased converts a 1-based query position to the 0-based position stored
// in the table files.
func ZeroBased(position1 int64) (int64, error) {
	if position1 < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPosition, position1)
	}
	return position1 - 1, nil
}

// Resolve derives the partition key for a 1-based position on a chromosome.
func Resolve(chromosome string, position1 int64) (Key, error) {
	chr, err := NormalizeChromosome(chromosome)
	if err != nil {
		return Key{}, err
	}
	pos0, err := ZeroBased(position1)
	if err != nil {
		return Key{}, err
	}
	return Key{
		Chromosome: chr,
		Bucket:     pos0 / BucketSize,
	}, nil
}

// ChrGroup renders the key the way table files are named: "{chr}.{bucket}".
func (k Key) ChrGroup() string {
	return fmt.Sprintf("%s.%d", k.Chromosome, k.Bucket)
}
