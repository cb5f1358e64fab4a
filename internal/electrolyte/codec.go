package electrolyte

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tailscale/hujson"
)

// The on-disk representation. External field names are a stable wire
// contract, deliberately independent of the Go identifiers so internal
// renames never change the files.
type record struct {
	ID       *int64    `json:"id,omitempty"`
	Name     string    `json:"name"`
	UNeg     []float64 `json:"uNeg"`
	UPos     []float64 `json:"uPos"`
	PKaNeg   []float64 `json:"pKaNeg"`
	PKaPos   []float64 `json:"pKaPos"`
	NegCount *int      `json:"negCount,omitempty"`
	PosCount *int      `json:"posCount,omitempty"`
}

type document struct {
	Constituents []record `json:"constituents"`
}

// ParseConstituents decodes a {"constituents": [...]} document.
//
// Input is standardized from JSONC first, so hand-edited files with
// comments or trailing commas still load. Every record passes through
// [New]; the first invalid one fails the whole parse.
//
// fixNames applies the bundled-dataset name normalization (spaces to
// underscores, the "Cl-" alias token to "CHLORO") before validation. It
// must only be used for the default dataset, never for user data.
func ParseConstituents(data []byte, fixNames bool) ([]*Constituent, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var doc document

	if err := json.Unmarshal(standardized, &doc); err != nil {
		return nil, fmt.Errorf("invalid constituents document: %w", err)
	}

	constituents := make([]*Constituent, 0, len(doc.Constituents))

	for _, rec := range doc.Constituents {
		name := rec.Name
		if fixNames {
			name = normalizeDefaultName(name)
		}

		c, err := New(Fields{
			ID:       rec.ID,
			Name:     name,
			UNeg:     rec.UNeg,
			UPos:     rec.UPos,
			PKaNeg:   rec.PKaNeg,
			PKaPos:   rec.PKaPos,
			NegCount: rec.NegCount,
			PosCount: rec.PosCount,
		})
		if err != nil {
			return nil, err
		}

		constituents = append(constituents, c)
	}

	return constituents, nil
}

// DumpConstituents encodes constituents as a pretty-printed document
// using the external field names, for human-readable, diffable files.
func DumpConstituents(constituents []*Constituent) ([]byte, error) {
	doc := document{Constituents: make([]record, 0, len(constituents))}

	for _, c := range constituents {
		negCount := c.NegCount()
		posCount := c.PosCount()

		doc.Constituents = append(doc.Constituents, record{
			ID:       c.ID,
			Name:     c.Name,
			UNeg:     emptyNotNull(c.UNeg),
			UPos:     emptyNotNull(c.UPos),
			PKaNeg:   emptyNotNull(c.PKaNeg),
			PKaPos:   emptyNotNull(c.PKaPos),
			NegCount: &negCount,
			PosCount: &posCount,
		})
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encoding constituents: %w", err)
	}

	return append(data, '\n'), nil
}

// normalizeDefaultName rewrites legacy names from the bundled dataset:
// embedded spaces become underscores and the species alias token "Cl-"
// becomes its descriptive form.
func normalizeDefaultName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")

	return strings.ReplaceAll(name, "Cl-", "CHLORO")
}

// emptyNotNull keeps zero-length sides as [] rather than null on disk.
func emptyNotNull(values []float64) []float64 {
	if values == nil {
		return []float64{}
	}

	return values
}
