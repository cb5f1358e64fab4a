// Package electrolyte holds the constituent data model and the
// file-backed database merging the bundled default dataset with the
// user-defined overlay.
package electrolyte

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// Physical constants for the Nernst-Einstein diffusivity estimate.
const (
	gasConstant     = 8.314
	temperatureK    = 300.0
	faradayConstant = 96485.0
)

// mobilityScale converts stored mobility magnitudes (*1e-9) to SI units.
const mobilityScale = 1e-9

// minChargeSpan is the minimum charge range covered by the derived
// sequences: they always span at least charges +3..-3.
const minChargeSpan = 3

// Constituent is a named chemical species with charge-indexed ionic
// mobilities and pKa values.
//
// The slices are indexed by charge: UNeg runs from the most negative
// modeled charge up to -1, UPos from +1 up to the most positive modeled
// charge. PKaNeg and PKaPos parallel UNeg and UPos.
//
// A Constituent is built by [New] (which enforces all invariants) and
// must not be modified afterwards; derive a changed value by calling
// [New] again.
type Constituent struct {
	// ID is the opaque identifier carried by default dataset entries.
	// User-defined constituents have none.
	ID *int64

	// Name is the upper-case, whitespace-free lookup key.
	Name string

	// UNeg holds mobility magnitudes (*1e-9) for charges [-n .. -1].
	UNeg []float64

	// UPos holds mobility magnitudes (*1e-9) for charges [+1 .. +n].
	UPos []float64

	// PKaNeg and PKaPos hold the dissociation constants for the same
	// charge positions as UNeg and UPos.
	PKaNeg []float64
	PKaPos []float64
}

// Fields is the raw input to [New]. NegCount and PosCount are optional;
// when present they must match the mobility slice lengths exactly.
type Fields struct {
	ID       *int64
	Name     string
	UNeg     []float64
	UPos     []float64
	PKaNeg   []float64
	PKaPos   []float64
	NegCount *int
	PosCount *int
}

// ValidationError lists every invariant violated by the input to [New].
type ValidationError struct {
	Name       string
	Violations []string
}

func (e *ValidationError) Error() string {
	name := e.Name
	if name == "" {
		name = "(unnamed)"
	}

	return fmt.Sprintf("invalid constituent %s: %s", name, strings.Join(e.Violations, "; "))
}

// New validates fields and builds a Constituent.
//
// Checks run in a fixed order: pKa/mobility length parity, explicit
// count consistency, name shape (non-empty, no whitespace, upper-case),
// pKa monotonicity (concatenated pKaNeg then pKaPos must never increase
// with charge). All violations are collected into one *ValidationError;
// no partially valid value is ever returned.
func New(fields Fields) (*Constituent, error) {
	var violations []string

	if len(fields.PKaNeg) != len(fields.UNeg) {
		violations = append(violations, "len(pKaNeg) != len(uNeg)")
	}

	if len(fields.PKaPos) != len(fields.UPos) {
		violations = append(violations, "len(pKaPos) != len(uPos)")
	}

	if fields.NegCount != nil && *fields.NegCount != len(fields.UNeg) {
		violations = append(violations, "negCount != len(uNeg)")
	}

	if fields.PosCount != nil && *fields.PosCount != len(fields.UPos) {
		violations = append(violations, "posCount != len(uPos)")
	}

	violations = append(violations, nameViolations(fields.Name)...)

	if !pkasNonIncreasing(fields.PKaNeg, fields.PKaPos) {
		violations = append(violations, "pKa values must not increase with charge")
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Name: fields.Name, Violations: violations}
	}

	return &Constituent{
		ID:     fields.ID,
		Name:   fields.Name,
		UNeg:   slices.Clone(fields.UNeg),
		UPos:   slices.Clone(fields.UPos),
		PKaNeg: slices.Clone(fields.PKaNeg),
		PKaPos: slices.Clone(fields.PKaPos),
	}, nil
}

func nameViolations(name string) []string {
	if name == "" {
		return []string{"name cannot be empty"}
	}

	var violations []string

	if strings.ContainsFunc(name, unicode.IsSpace) {
		violations = append(violations, "name cannot contain any whitespace")
	}

	if !isUpperName(name) {
		violations = append(violations, "name must be all uppercase")
	}

	return violations
}

// isUpperName reports whether name has at least one cased rune and no
// lower-case ones.
func isUpperName(name string) bool {
	cased := false

	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}

		if unicode.IsUpper(r) {
			cased = true
		}
	}

	return cased
}

// pkasNonIncreasing checks that the concatenation of pKaNeg and pKaPos
// (most negative charge first through most positive last) never
// increases.
func pkasNonIncreasing(pkasNeg, pkasPos []float64) bool {
	prev := 0.0
	first := true

	for _, pka := range append(slices.Clone(pkasNeg), pkasPos...) {
		if !first && pka > prev {
			return false
		}

		prev = pka
		first = false
	}

	return true
}

// NegCount returns the number of modeled negative charges.
func (c *Constituent) NegCount() int { return len(c.UNeg) }

// PosCount returns the number of modeled positive charges.
func (c *Constituent) PosCount() int { return len(c.UPos) }

// span is the covered charge magnitude: max(negCount, posCount, 3).
func (c *Constituent) span() int {
	return max(c.NegCount(), c.PosCount(), minChargeSpan)
}

// Mobilities returns the SI mobilities ordered from the most positive
// covered charge down to the most negative. The result has 2*span()
// entries (at least 6, covering +3..+1 and -1..-3); charges outside the
// modeled range get zero mobility.
func (c *Constituent) Mobilities() []float64 {
	n := c.span()
	out := make([]float64, 0, 2*n)

	for i := 0; i < n-len(c.UPos); i++ {
		out = append(out, 0)
	}

	for i := len(c.UPos) - 1; i >= 0; i-- {
		out = append(out, c.UPos[i]*mobilityScale)
	}

	for i := len(c.UNeg) - 1; i >= 0; i-- {
		out = append(out, c.UNeg[i]*mobilityScale)
	}

	for i := 0; i < n-len(c.UNeg); i++ {
		out = append(out, 0)
	}

	return out
}

// Pkas returns the pKa values in the same charge order and length as
// [Constituent.Mobilities]. Positions outside the modeled range get a
// textbook extreme from defaultPKa.
func (c *Constituent) Pkas() []float64 {
	n := c.span()
	out := make([]float64, 0, 2*n)

	for charge := n; charge > len(c.UPos); charge-- {
		out = append(out, defaultPKa(charge))
	}

	for i := len(c.PKaPos) - 1; i >= 0; i-- {
		out = append(out, c.PKaPos[i])
	}

	for i := len(c.PKaNeg) - 1; i >= 0; i-- {
		out = append(out, c.PKaNeg[i])
	}

	for charge := len(c.UNeg) + 1; charge <= n; charge++ {
		out = append(out, defaultPKa(-charge))
	}

	return out
}

// defaultPKa supplies the pKa for a charge with no modeled mobility:
// 14 - charge for negative charges, -charge for positive ones.
func defaultPKa(charge int) float64 {
	if charge < 0 {
		return float64(14 - charge)
	}

	return float64(-charge)
}

// Diffusivity estimates the Nernst-Einstein diffusion coefficient in
// m²/s from the largest mobility at the ±1 charge positions. If neither
// ±1 mobility is modeled the estimate is 0.
func (c *Constituent) Diffusivity() float64 {
	u := 0.0

	if n := len(c.UNeg); n > 0 {
		u = c.UNeg[n-1]
	}

	if len(c.UPos) > 0 && c.UPos[0] > u {
		u = c.UPos[0]
	}

	return u * mobilityScale * gasConstant * temperatureK / faradayConstant
}

// Equal reports field-for-field equality with other.
func (c *Constituent) Equal(other *Constituent) bool {
	if c == nil || other == nil {
		return c == other
	}

	if (c.ID == nil) != (other.ID == nil) {
		return false
	}

	if c.ID != nil && *c.ID != *other.ID {
		return false
	}

	return c.Name == other.Name &&
		slices.Equal(c.UNeg, other.UNeg) &&
		slices.Equal(c.UPos, other.UPos) &&
		slices.Equal(c.PKaNeg, other.PKaNeg) &&
		slices.Equal(c.PKaPos, other.PKaPos)
}
