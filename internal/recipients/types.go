package recipients

import (
	"context"
	"errors"
	"strings"
)

// Status is the delivery state stored in the status column.
type Status string

const (
	NotSent Status = "Not Sent"
	Sent    Status = "Sent"
	Failed  Status = "Failed"
)

// ParseStatus maps a cell value onto a Status. A blank cell is NotSent so
// rows added without a status are picked up; matching is case-insensitive.
// Unknown values are returned as-is and never match a known status.
func ParseStatus(cell string) Status {
	v := strings.TrimSpace(cell)
	switch {
	case v == "", strings.EqualFold(v, string(NotSent)), strings.EqualFold(v, "NotSent"):
		return NotSent
	case strings.EqualFold(v, string(Sent)):
		return Sent
	case strings.EqualFold(v, string(Failed)):
		return Failed
	}
	return Status(v)
}

var (
	// ErrUnknownField is returned when writing to a column the header lacks.
	ErrUnknownField = errors.New("field not found in header")
	// ErrRowOutOfRange is returned when writing to a row the store lacks.
	ErrRowOutOfRange = errors.New("row out of range")
	// ErrOutsideRange is returned when a new column would fall outside the
	// configured range.
	ErrOutsideRange = errors.New("column outside the configured range")
	// ErrEmptyHeader is returned when the store has no header row.
	ErrEmptyHeader = errors.New("store has no header row")
)

// Recipient is one data row. Row is the 1-based position of the row in the
// store, the header being the first row, and is the identity used for
// updates.
type Recipient struct {
	Row    int
	Fields map[string]string
}

// Get returns the trimmed value of field, or "" when absent.
func (r Recipient) Get(field string) string {
	return strings.TrimSpace(r.Fields[field])
}

// Has reports whether the row carries field in its schema.
func (r Recipient) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// Store is a tabular recipient source. The schema comes from the header row.
type Store interface {
	// Fields returns the header row.
	Fields(ctx context.Context) ([]string, error)

	// EnsureField appends field to the header when it is missing.
	EnsureField(ctx context.Context, field string) error

	// List returns, top to bottom, the rows whose statusField parses to status.
	List(ctx context.Context, statusField string, status Status) ([]Recipient, error)

	// Update writes value into field at row.
	Update(ctx context.Context, row int, field, value string) error
}
