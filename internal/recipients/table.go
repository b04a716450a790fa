package recipients

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// table is a header plus data rows as read from a backend. firstRow is the
// store row number of the header.
type table struct {
	header   []string
	rows     [][]string
	firstRow int
}

func newTable(grid [][]string, firstRow int) table {
	if len(grid) == 0 {
		return table{firstRow: firstRow}
	}
	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}
	return table{header: header, rows: grid[1:], firstRow: firstRow}
}

func (t table) index(field string) int {
	for i, h := range t.header {
		if h == field {
			return i
		}
	}
	return -1
}

// recipient pads short rows with empty cells so every header field is present.
func (t table) recipient(i int) Recipient {
	row := t.rows[i]
	fields := make(map[string]string, len(t.header))
	for j, h := range t.header {
		if h == "" {
			continue
		}
		if j < len(row) {
			fields[h] = row[j]
		} else {
			fields[h] = ""
		}
	}
	return Recipient{Row: t.firstRow + 1 + i, Fields: fields}
}

func (t table) filter(statusField string, status Status) []Recipient {
	idx := t.index(statusField)
	var out []Recipient
	for i, row := range t.rows {
		if isBlank(row) {
			continue
		}
		cell := ""
		if idx >= 0 && idx < len(row) {
			cell = row[idx]
		}
		if ParseStatus(cell) != status {
			continue
		}
		out = append(out, t.recipient(i))
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ColumnLetter converts a 1-based column number into A1 notation letters.
func ColumnLetter(col int) string {
	letter := ""
	for col > 0 {
		col--
		letter = string(rune('A'+(col%26))) + letter
		col /= 26
	}
	return letter
}

// columnNumber converts A1 notation letters into a 1-based column number.
func columnNumber(letters string) int {
	n := 0
	for _, r := range strings.ToUpper(letters) {
		n = n*26 + int(r-'A'+1)
	}
	return n
}

var a1Cells = regexp.MustCompile(`^([A-Za-z]{1,3})?([0-9]+)?(:[A-Za-z]{0,3}[0-9]*)?$`)

// rangeStart parses the top-left cell of an A1 range such as
// "Sheet1!B3:Z100" into a 1-based column and row. Missing parts default to
// column A and row 1, so a bare sheet name starts at A1.
func rangeStart(a1 string) (col, row int, err error) {
	cells := a1
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		cells = a1[i+1:]
	} else if !a1Cells.MatchString(a1) {
		return 1, 1, nil
	}
	m := a1Cells.FindStringSubmatch(cells)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid range %q", a1)
	}
	col, row = 1, 1
	if m[1] != "" {
		col = columnNumber(m[1])
	}
	if m[2] != "" {
		row, err = strconv.Atoi(m[2])
		if err != nil || row < 1 {
			return 0, 0, fmt.Errorf("invalid range %q", a1)
		}
	}
	return col, row, nil
}

// rangeEndColumn returns the 1-based last column of an A1 range, or 0 when
// the range is not bounded on the right ("Sheet1", "A1:1000").
func rangeEndColumn(a1 string) int {
	cells := a1
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		cells = a1[i+1:]
	}
	m := a1Cells.FindStringSubmatch(cells)
	if m == nil {
		return 0
	}
	end := strings.TrimPrefix(m[3], ":")
	letters := strings.TrimRight(end, "0123456789")
	if letters == "" {
		if m[3] == "" && m[1] != "" {
			return columnNumber(m[1])
		}
		return 0
	}
	return columnNumber(letters)
}
