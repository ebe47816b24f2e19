package compare

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is matched by *UnsupportedTypeError.
var ErrUnsupportedType = errors.New("unsupported type")

// UnsupportedTypeError reports a column that cannot be compared. It only
// removes that column from the comparison.
type UnsupportedTypeError struct {
	Column  string
	Side    string
	SQLType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("column %q has unsupported %s type %s", e.Column, e.Side, e.SQLType)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}
