package runtime

import "sort"

// Mismatch records one diverging element, only populated when a
// ValidationReport is built in verbose mode.
type Mismatch struct {
	Index int
	Got   uint32
	Want  uint32
}

// ValidationResult is the comparison outcome for a single declared output
// or intermediate.
type ValidationResult struct {
	Key        string
	OK         bool
	GotWidth   int
	WantWidth  int
	Mismatches []Mismatch
}

// ValidationReport accumulates size/value divergences against expected
// output rather than unwinding, per spec.md §7's "Validation mismatch...
// does not abort execution" policy.
type ValidationReport struct {
	Results []ValidationResult
	Success bool
}

// Validate reads back every key in expected and compares it against the
// expected sequence, in sorted key order for determinism. If verbose is
// false, each ValidationResult's Mismatches is left empty and only OK
// reflects whether the comparison passed (spec.md §7: "one consolidated
// SUCCESS/FAILURE per output otherwise").
func (rt *Runtime) Validate(expected map[string][]uint32, verbose bool) *ValidationReport {
	report := &ValidationReport{Success: true}
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := expected[key]
		result := ValidationResult{Key: key, WantWidth: len(want)}

		got, err := rt.Readback(key)
		if err != nil {
			result.OK = false
			report.Results = append(report.Results, result)
			report.Success = false
			continue
		}
		result.GotWidth = got.Len()

		if got.Len() != len(want) {
			result.OK = false
			report.Success = false
			report.Results = append(report.Results, result)
			continue
		}

		result.OK = true
		for i, w := range want {
			if got.At(i) != w {
				result.OK = false
				if verbose {
					result.Mismatches = append(result.Mismatches, Mismatch{Index: i, Got: got.At(i), Want: w})
				}
			}
		}
		if !result.OK {
			report.Success = false
		}
		report.Results = append(report.Results, result)
	}
	return report
}
