package electrolyte

import (
	_ "embed"
	"fmt"
)

// The bundled default dataset. It ships inside the binary, so a parse
// failure here is a broken build, not bad input: loading errors are
// fatal for the operation that triggered them.
//
//go:embed db1.json
var db1Data []byte

// loadDefaults parses the bundled dataset into a name-keyed map, with
// the legacy-name normalization applied.
func loadDefaults() (map[string]*Constituent, error) {
	constituents, err := ParseConstituents(db1Data, true)
	if err != nil {
		return nil, fmt.Errorf("loading default constituents: %w", err)
	}

	byName := make(map[string]*Constituent, len(constituents))
	for _, c := range constituents {
		byName[c.Name] = c
	}

	return byName, nil
}
