package validation

import "errors"

// TableCheck describes what an extraction found, for table-level validation.
type TableCheck struct {
	Rows           int
	MinRows        int
	Expected       []string
	MissingColumns []string
	HeaderLine     int
	HeaderScore    float64
}

// CheckTable applies the table-level rules after extraction. Both failures are
// reported when both apply. With skip set nothing is enforced.
func CheckTable(c TableCheck, skip bool) error {
	if skip {
		return nil
	}

	var errs []error
	if len(c.MissingColumns) > 0 {
		errs = append(errs, &FormatMismatchError{
			Expected: c.Expected,
			Missing:  c.MissingColumns,
			Line:     c.HeaderLine,
			Score:    c.HeaderScore,
		})
	}
	if c.Rows < c.MinRows {
		errs = append(errs, &InsufficientRowsError{Rows: c.Rows, MinRows: c.MinRows})
	}

	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}
