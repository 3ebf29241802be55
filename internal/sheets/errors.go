package sheets

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"google.golang.org/api/googleapi"
)

// gridLimitPattern matches the message returned when a write runs past a sheet's grid.
var gridLimitPattern = regexp.MustCompile(
	`Range \('?(?P<sheet>[^'!]+)'?!\w+\) exceeds grid limits\. Max rows: (?P<rows>\d+), max columns: \d+`,
)

// CapacityError reports a write that targeted rows beyond a sheet's row count.
type CapacityError struct {
	// Err is the underlying API error.
	Err error

	// MaxRows is the sheet's row count at the time of the write.
	MaxRows int64

	// Sheet is the title of the sheet that overflowed.
	Sheet string
}

// Error implements error.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("sheet %s exceeds grid limits (max rows: %d)", e.Sheet, e.MaxRows)
}

// Unwrap returns the underlying API error.
func (e *CapacityError) Unwrap() error {
	return e.Err
}

// capacityError converts a grid-limit API failure into a *CapacityError, or returns nil.
func capacityError(err error) *CapacityError {
	message := err.Error()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		message = apiErr.Message
	}

	m := gridLimitPattern.FindStringSubmatch(message)
	if m == nil {
		return nil
	}

	rows, convErr := strconv.ParseInt(m[gridLimitPattern.SubexpIndex("rows")], 10, 64)
	if convErr != nil {
		return nil
	}

	return &CapacityError{
		Err:     err,
		MaxRows: rows,
		Sheet:   m[gridLimitPattern.SubexpIndex("sheet")],
	}
}
