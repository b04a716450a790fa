package recipients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"

	"github.com/ryan-gang/outreach-send/internal/util"
)

// Refresher forces a new access token after the API rejected the current one.
type Refresher interface {
	Refresh() error
}

// SheetsStore implements Store on a Google Sheets range. The first row of the
// range is the header.
type SheetsStore struct {
	mu        sync.Mutex
	svc       *sheets.Service
	sheetID   string
	readRange string
	prefix    string
	startCol  int
	startRow  int
	endCol    int
	refresher Refresher
}

// NewSheetsStore reads and writes readRange ("Sheet1!A1:Z1000") of the
// spreadsheet. refresher may be nil.
func NewSheetsStore(svc *sheets.Service, spreadsheetID, readRange string, refresher Refresher) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	col, row, err := rangeStart(readRange)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if i := strings.LastIndex(readRange, "!"); i >= 0 {
		prefix = readRange[:i+1]
	} else if !a1Cells.MatchString(readRange) {
		prefix = readRange + "!"
	}
	return &SheetsStore{
		svc:       svc,
		sheetID:   spreadsheetID,
		readRange: readRange,
		prefix:    prefix,
		startCol:  col,
		startRow:  row,
		endCol:    rangeEndColumn(readRange),
		refresher: refresher,
	}, nil
}

func (s *SheetsStore) Name() string {
	return "sheets"
}

// cell returns the A1 address of a single cell, col being 0-based within the
// range and row the sheet row number.
func (s *SheetsStore) cell(col, row int) string {
	return fmt.Sprintf("%s%s%d", s.prefix, ColumnLetter(s.startCol+col), row)
}

// call runs fn, retrying once after a token refresh when the API answers 401.
func (s *SheetsStore) call(op string, fn func() error) error {
	err := fn()
	if err != nil && statusCode(err) == http.StatusUnauthorized && s.refresher != nil {
		if rerr := s.refresher.Refresh(); rerr != nil {
			return util.Configuration(op, fmt.Errorf("refreshing sheets token: %w", rerr))
		}
		err = fn()
	}
	if err != nil {
		return classify(op, err)
	}
	return nil
}

func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

func classify(op string, err error) error {
	code := statusCode(err)
	switch {
	case code == 0, code == http.StatusTooManyRequests, code >= 500:
		return util.Transient(op, err)
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return util.Configuration(op, err)
	}
	return util.Permanent(op, err)
}

func (s *SheetsStore) read(ctx context.Context) (table, error) {
	grid, err := s.get(ctx, s.readRange)
	if err != nil {
		return table{}, err
	}
	return newTable(grid, s.startRow), nil
}

// readHeader fetches only the header row when the range is bounded, so
// Update sees columns inserted since the last List.
func (s *SheetsStore) readHeader(ctx context.Context) ([]string, error) {
	if s.endCol == 0 {
		t, err := s.read(ctx)
		return t.header, err
	}
	a1 := fmt.Sprintf("%s%s%d:%s%d", s.prefix, ColumnLetter(s.startCol), s.startRow, ColumnLetter(s.endCol), s.startRow)
	grid, err := s.get(ctx, a1)
	if err != nil {
		return nil, err
	}
	return newTable(grid, s.startRow).header, nil
}

func (s *SheetsStore) get(ctx context.Context, a1 string) ([][]string, error) {
	var resp *sheets.ValueRange
	err := s.call("sheets.get", func() error {
		var err error
		resp, err = s.svc.Spreadsheets.Values.Get(s.sheetID, a1).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		grid[i] = make([]string, len(row))
		for j, v := range row {
			grid[i][j] = fmt.Sprint(v)
		}
	}
	return grid, nil
}

func (s *SheetsStore) write(ctx context.Context, a1, value string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	return s.call("sheets.update", func() error {
		_, err := s.svc.Spreadsheets.Values.Update(s.sheetID, a1, vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
}

func (s *SheetsStore) Fields(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), t.header...), nil
}

func (s *SheetsStore) EnsureField(ctx context.Context, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.read(ctx)
	if err != nil {
		return err
	}
	if len(t.header) == 0 {
		return ErrEmptyHeader
	}
	if t.index(field) >= 0 {
		return nil
	}
	if col := s.startCol + len(t.header); s.endCol > 0 && col > s.endCol {
		return util.Configuration("sheets.ensure_field",
			fmt.Errorf("%w: %s would go in column %s, range %s ends at %s; widen GOOGLE_SHEET_RANGE or add the column",
				ErrOutsideRange, field, ColumnLetter(col), s.readRange, ColumnLetter(s.endCol)))
	}
	return s.write(ctx, s.cell(len(t.header), s.startRow), field)
}

func (s *SheetsStore) List(ctx context.Context, statusField string, status Status) ([]Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return t.filter(statusField, status), nil
}

// Update re-reads the header before writing, so the cell follows its column
// even if columns were inserted since the last List.
func (s *SheetsStore) Update(ctx context.Context, row int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row <= s.startRow {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	header, err := s.readHeader(ctx)
	if err != nil {
		return err
	}
	col := table{header: header}.index(field)
	if col < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return s.write(ctx, s.cell(col, row), value)
}
