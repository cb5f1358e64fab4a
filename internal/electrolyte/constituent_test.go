package electrolyte

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func approx() cmp.Option {
	return cmpopts.EquateApprox(1e-9, 1e-18)
}

func mustNew(t *testing.T, fields Fields) *Constituent {
	t.Helper()

	c, err := New(fields)
	if err != nil {
		t.Fatalf("New(%+v): %v", fields, err)
	}

	return c
}

func intPtr(v int) *int { return &v }

func TestNewRejectsInvalidFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fields    Fields
		violation string
	}{
		{
			name:      "pka neg length mismatch",
			fields:    Fields{Name: "A", UNeg: []float64{1, 2}, PKaNeg: []float64{5}},
			violation: "len(pKaNeg) != len(uNeg)",
		},
		{
			name:      "pka pos length mismatch",
			fields:    Fields{Name: "A", UPos: []float64{1}, PKaPos: []float64{1, 2}},
			violation: "len(pKaPos) != len(uPos)",
		},
		{
			name:      "neg count mismatch",
			fields:    Fields{Name: "A", UNeg: []float64{1}, PKaNeg: []float64{5}, NegCount: intPtr(2)},
			violation: "negCount != len(uNeg)",
		},
		{
			name:      "pos count mismatch",
			fields:    Fields{Name: "A", UPos: []float64{1}, PKaPos: []float64{5}, PosCount: intPtr(0)},
			violation: "posCount != len(uPos)",
		},
		{
			name:      "empty name",
			fields:    Fields{Name: ""},
			violation: "name cannot be empty",
		},
		{
			name:      "whitespace in name",
			fields:    Fields{Name: "TWO WORDS"},
			violation: "name cannot contain any whitespace",
		},
		{
			name:      "lowercase name",
			fields:    Fields{Name: "Chloride"},
			violation: "name must be all uppercase",
		},
		{
			name:      "uncased name",
			fields:    Fields{Name: "123"},
			violation: "name must be all uppercase",
		},
		{
			name:      "increasing pkas on one side",
			fields:    Fields{Name: "A", UNeg: []float64{1, 2}, PKaNeg: []float64{1.0, 5.0}},
			violation: "pKa values must not increase with charge",
		},
		{
			name: "increasing pkas across sides",
			fields: Fields{
				Name: "A",
				UNeg: []float64{1}, PKaNeg: []float64{2.0},
				UPos: []float64{1}, PKaPos: []float64{3.0},
			},
			violation: "pKa values must not increase with charge",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(testCase.fields)
			if err == nil {
				t.Fatalf("New(%+v) succeeded, want violation %q", testCase.fields, testCase.violation)
			}

			var validationErr *ValidationError
			if !asValidationError(err, &validationErr) {
				t.Fatalf("error is %T, want *ValidationError", err)
			}

			if !containsViolation(validationErr, testCase.violation) {
				t.Errorf("violations %v do not include %q", validationErr.Violations, testCase.violation)
			}
		})
	}
}

func TestNewCollectsAllViolations(t *testing.T) {
	t.Parallel()

	_, err := New(Fields{
		Name:   "two words",
		UNeg:   []float64{1},
		PKaNeg: []float64{},
	})
	if err == nil {
		t.Fatal("New succeeded, want error")
	}

	var validationErr *ValidationError
	if !asValidationError(err, &validationErr) {
		t.Fatalf("error is %T, want *ValidationError", err)
	}

	if len(validationErr.Violations) < 3 {
		t.Errorf("got %d violations %v, want all of length/whitespace/case reported",
			len(validationErr.Violations), validationErr.Violations)
	}
}

func TestNewAcceptsValidFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields Fields
	}{
		{"both sides empty", Fields{Name: "EMPTY"}},
		{
			"explicit matching counts",
			Fields{
				Name: "OK",
				UNeg: []float64{1}, PKaNeg: []float64{9},
				NegCount: intPtr(1), PosCount: intPtr(0),
			},
		},
		{
			"more than three charges",
			Fields{
				Name: "BIG",
				UNeg: []float64{5, 4, 3, 2, 1},
				PKaNeg: []float64{12, 10, 8, 6, 4},
			},
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			mustNew(t, testCase.fields)
		})
	}
}

func TestDerivedLengthsAlwaysMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fields   Fields
		wantHalf int
	}{
		{"empty", Fields{Name: "A"}, 3},
		{"one neg", Fields{Name: "A", UNeg: []float64{1}, PKaNeg: []float64{9}}, 3},
		{
			"five neg",
			Fields{Name: "A", UNeg: []float64{5, 4, 3, 2, 1}, PKaNeg: []float64{12, 10, 8, 6, 4}},
			5,
		},
		{
			"asymmetric",
			Fields{
				Name: "A",
				UNeg: []float64{1}, PKaNeg: []float64{9},
				UPos: []float64{1, 2, 3, 4}, PKaPos: []float64{8, 6, 4, 2},
			},
			4,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			c := mustNew(t, testCase.fields)

			wantLen := 2 * testCase.wantHalf
			if got := len(c.Mobilities()); got != wantLen {
				t.Errorf("len(Mobilities()) = %d, want %d", got, wantLen)
			}

			if got := len(c.Pkas()); got != wantLen {
				t.Errorf("len(Pkas()) = %d, want %d", got, wantLen)
			}
		})
	}
}

// Cystine pins the charge-order convention: the negative side is stored
// most-negative-charge-first, the positive side ascending, and the
// derived sequence runs from the most positive charge to the most
// negative.
func TestCystineDerivedValues(t *testing.T) {
	t.Parallel()

	cystine := mustNew(t, Fields{
		Name: "CYSTINE",
		UNeg: []float64{53.9, 27.0}, PKaNeg: []float64{9.845, 8.405},
		UPos: []float64{27.0, 53.9}, PKaPos: []float64{2.26, 1.65},
	})

	wantMobilities := []float64{0.0, 5.39e-8, 2.7e-8, 2.7e-8, 5.39e-8, 0.0}
	if diff := cmp.Diff(wantMobilities, cystine.Mobilities(), approx()); diff != "" {
		t.Errorf("Mobilities() mismatch (-want +got):\n%s", diff)
	}

	wantPkas := []float64{-3, 1.65, 2.26, 8.405, 9.845, 17}
	if diff := cmp.Diff(wantPkas, cystine.Pkas(), approx()); diff != "" {
		t.Errorf("Pkas() mismatch (-want +got):\n%s", diff)
	}

	const wantDiffusivity = 6.9797e-10
	if got := cystine.Diffusivity(); math.Abs(got-wantDiffusivity)/wantDiffusivity > 1e-4 {
		t.Errorf("Diffusivity() = %g, want ≈ %g", got, wantDiffusivity)
	}
}

func TestSingleChargePairDerivedValues(t *testing.T) {
	t.Parallel()

	c := mustNew(t, Fields{
		Name: "TEST",
		UNeg: []float64{2}, PKaNeg: []float64{3},
		UPos: []float64{6}, PKaPos: []float64{-1.5},
	})

	wantMobilities := []float64{0, 0, 6e-9, 2e-9, 0, 0}
	if diff := cmp.Diff(wantMobilities, c.Mobilities(), approx()); diff != "" {
		t.Errorf("Mobilities() mismatch (-want +got):\n%s", diff)
	}

	// Unmodeled charges get the textbook extremes: -charge above,
	// 14 - charge below.
	wantPkas := []float64{-3, -2, -1.5, 3, 16, 17}
	if diff := cmp.Diff(wantPkas, c.Pkas(), approx()); diff != "" {
		t.Errorf("Pkas() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultPkaFillsEmptySide(t *testing.T) {
	t.Parallel()

	c := mustNew(t, Fields{Name: "ANION", UNeg: []float64{40}, PKaNeg: []float64{4.5}})

	wantPkas := []float64{-3, -2, -1, 4.5, 16, 17}
	if diff := cmp.Diff(wantPkas, c.Pkas(), approx()); diff != "" {
		t.Errorf("Pkas() mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffusivity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields Fields
		want   float64
	}{
		{
			"uses innermost negative charge",
			Fields{Name: "A", UNeg: []float64{53.9, 27.0}, PKaNeg: []float64{10, 8}},
			27.0 * 1e-9 * 8.314 * 300 / 96485,
		},
		{
			"takes the larger of the two inner mobilities",
			Fields{
				Name: "A",
				UNeg: []float64{2}, PKaNeg: []float64{3},
				UPos: []float64{6}, PKaPos: []float64{-1.5},
			},
			6e-9 * 8.314 * 300 / 96485,
		},
		{"no modeled charges", Fields{Name: "A"}, 0},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			c := mustNew(t, testCase.fields)

			if got := c.Diffusivity(); math.Abs(got-testCase.want) > 1e-18 {
				t.Errorf("Diffusivity() = %g, want %g", got, testCase.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	base := Fields{
		Name: "GLYCINE",
		UNeg: []float64{37.4}, PKaNeg: []float64{9.78},
		UPos: []float64{37.4}, PKaPos: []float64{2.35},
	}

	a := mustNew(t, base)
	b := mustNew(t, base)

	if !a.Equal(b) {
		t.Error("identical constituents compare unequal")
	}

	changed := base
	changed.PKaPos = []float64{2.36}

	c := mustNew(t, changed)
	if a.Equal(c) {
		t.Error("different pKas compare equal")
	}

	var id int64 = 12
	withID := base
	withID.ID = &id

	d := mustNew(t, withID)
	if a.Equal(d) {
		t.Error("entry with ID compares equal to entry without")
	}
}

func TestDerivedViewsAreDeterministic(t *testing.T) {
	t.Parallel()

	c := mustNew(t, Fields{
		Name: "HISTIDINE",
		UNeg: []float64{28.8}, PKaNeg: []float64{9.34},
		UPos: []float64{29.6}, PKaPos: []float64{6.04},
	})

	if diff := cmp.Diff(c.Mobilities(), c.Mobilities()); diff != "" {
		t.Errorf("repeated Mobilities() differ:\n%s", diff)
	}

	if diff := cmp.Diff(c.Pkas(), c.Pkas()); diff != "" {
		t.Errorf("repeated Pkas() differ:\n%s", diff)
	}
}

func asValidationError(err error, target **ValidationError) bool {
	return errors.As(err, target)
}

func containsViolation(err *ValidationError, want string) bool {
	for _, violation := range err.Violations {
		if strings.Contains(violation, want) {
			return true
		}
	}

	return false
}
