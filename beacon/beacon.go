// Package beacon holds the Beacon-facing result payload shapes and the
// helpers that build them from scanned table rows.
package beacon

import (
	"fmt"

	"github.com/GenomicDataInfrastructure/gdi-mini-node/parquet_reader"
	"github.com/GenomicDataInfrastructure/gdi-mini-node/partition"
	"github.com/google/uuid"
)

const (
	frequencySource          = "The Genome of Europe"
	frequencySourceReference = "https://genomeofeurope.eu/"
)

type (
	Identifiers struct {
		GenomicHGVSID string `json:"genomicHGVSId"`
	}

	Number struct {
		Type  string `json:"type"`
		Value int64  `json:"value"`
	}

	SequenceInterval struct {
		Type  string `json:"type"`
		Start Number `json:"start"`
		End   Number `json:"end"`
	}

	SequenceLocation struct {
		Type       string           `json:"type"`
		SequenceID string           `json:"sequence_id"`
		Interval   SequenceInterval `json:"interval"`
	}

	// LegacyVariation keeps the pre-VRS variation block consumers still
	// expect alongside the identifiers.
	LegacyVariation struct {
		Location       SequenceLocation `json:"location"`
		ReferenceBases string           `json:"referenceBases"`
		AlternateBases string           `json:"alternateBases"`
		VariantType    string           `json:"variantType"`
	}

	PopulationFrequency struct {
		Population              string  `json:"population"`
		AlleleFrequency         float64 `json:"alleleFrequency"`
		AlleleCount             int32   `json:"alleleCount"`
		AlleleCountHomozygous   int32   `json:"alleleCountHomozygous"`
		AlleleCountHeterozygous int32   `json:"alleleCountHeterozygous"`
		AlleleCountHemizygous   int32   `json:"alleleCountHemizygous"`
		AlleleNumber            int32   `json:"alleleNumber"`
	}

	FrequencyInPopulations struct {
		Source              string                `json:"source"`
		SourceReference     string                `json:"sourceReference"`
		NumberOfPopulations int                   `json:"numberOfPopulations"`
		Populations         []PopulationFrequency `json:"populations"`
	}

	AlleleFreqResult struct {
		Identifiers       Identifiers              `json:"identifiers"`
		VariantInternalID string                   `json:"variantInternalId"`
		Variation         LegacyVariation          `json:"variation"`
		FrequencyInPops   []FrequencyInPopulations `json:"frequencyInPopulations"`
	}

	ResultSet struct {
		ID           string `json:"id"`
		SetType      string `json:"setType"`
		Exists       bool   `json:"exists"`
		ResultsCount int    `json:"resultsCount"`
		Results      []any  `json:"results"`
	}

	ResultSets struct {
		ResultSets []ResultSet `json:"resultSets"`
	}
)

func NewResultSets() ResultSets {
	return ResultSets{ResultSets: []ResultSet{}}
}

func NewResultSet(datasetID string, resultsCount int, results []any) ResultSet {
	if results == nil {
		results = []any{}
	}
	return ResultSet{
		ID:           datasetID,
		SetType:      "dataset",
		Exists:       resultsCount > 0,
		ResultsCount: resultsCount,
		Results:      results,
	}
}

// NewAlleleFreqResult assembles the per-dataset allele-frequency payload
// from the matched population rows. The variant identity comes from the
// first row; the table key guarantees all rows share it.
func NewAlleleFreqResult(assembly partition.Assembly, chromosome string, rows []parquet_reader.AlleleFreqRow) AlleleFreqResult {
	v := rows[0]
	pops := make([]PopulationFrequency, 0, len(rows))
	for _, row := range rows {
		pops = append(pops, PopulationFrequency{
			Population:              row.Population,
			AlleleFrequency:         row.Af,
			AlleleCount:             row.Ac,
			AlleleCountHomozygous:   row.AcHom,
			AlleleCountHeterozygous: row.AcHet,
			AlleleCountHemizygous:   row.AcHemi,
			AlleleNumber:            row.An,
		})
	}

	return AlleleFreqResult{
		Identifiers: Identifiers{
			GenomicHGVSID: HGVSID(assembly, chromosome, v.Pos, v.Ref, v.Alt),
		},
		VariantInternalID: VariantInternalID(v.Ref, v.Alt),
		Variation:         legacyVariation(chromosome, v),
		FrequencyInPops: []FrequencyInPopulations{{
			Source:              frequencySource,
			SourceReference:     frequencySourceReference,
			NumberOfPopulations: len(pops),
			Populations:         pops,
		}},
	}
}

// HGVSID renders the genomic HGVS identifier against the assembly's RefSeq
// accession. Table positions are 0-based, HGVS is 1-based.
func HGVSID(assembly partition.Assembly, chromosome string, pos0 int32, ref, alt string) string {
	accession := RefSeq[assembly][chromosome]
	return fmt.Sprintf("%s:g.%d%s>%s", accession, int64(pos0)+1, ref, alt)
}

// VariantInternalID follows the internal ID format used in
// beacon2-ri-tools-v2.
func VariantInternalID(ref, alt string) string {
	return uuid.NewString() + ":" + ref + ":" + alt
}

func legacyVariation(chromosome string, v parquet_reader.AlleleFreqRow) LegacyVariation {
	return LegacyVariation{
		Location: SequenceLocation{
			Type:       "SequenceLocation",
			SequenceID: fmt.Sprintf("HGVSid:%s:g.%d%s>%s", chromosome, int64(v.Pos)+1, v.Ref, v.Alt),
			Interval: SequenceInterval{
				Type:  "SequenceInterval",
				Start: Number{Type: "Number", Value: int64(v.Pos)},
				End:   Number{Type: "Number", Value: int64(v.Pos) + int64(len(v.Ref))},
			},
		},
		ReferenceBases: v.Ref,
		AlternateBases: v.Alt,
		VariantType:    v.Vt,
	}
}
