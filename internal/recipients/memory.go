package recipients

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps the table in memory. It backs previews and tests.
type MemoryStore struct {
	mu   sync.Mutex
	grid [][]string

	// OnUpdate, when set, is called before every Update; a non-nil error
	// aborts the write.
	OnUpdate func(row int, field, value string) error
}

// NewMemoryStore copies header and rows into a new store.
func NewMemoryStore(header []string, rows ...[]string) *MemoryStore {
	grid := make([][]string, 0, len(rows)+1)
	grid = append(grid, append([]string(nil), header...))
	for _, r := range rows {
		grid = append(grid, append([]string(nil), r...))
	}
	return &MemoryStore{grid: grid}
}

func (m *MemoryStore) table() table {
	return newTable(m.grid, 1)
}

func (m *MemoryStore) Fields(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.table().header...), nil
}

func (m *MemoryStore) EnsureField(_ context.Context, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.grid) == 0 {
		return ErrEmptyHeader
	}
	if m.table().index(field) >= 0 {
		return nil
	}
	m.grid[0] = append(m.grid[0], field)
	return nil
}

func (m *MemoryStore) List(_ context.Context, statusField string, status Status) ([]Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table().filter(statusField, status), nil
}

func (m *MemoryStore) Update(_ context.Context, row int, field, value string) error {
	if m.OnUpdate != nil {
		if err := m.OnUpdate(row, field, value); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col := m.table().index(field)
	if col < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	i := row - 1
	if i < 1 || i >= len(m.grid) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	for len(m.grid[i]) <= col {
		m.grid[i] = append(m.grid[i], "")
	}
	m.grid[i][col] = value
	return nil
}

// Cell returns the value at row and field, for assertions.
func (m *MemoryStore) Cell(row int, field string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	col := m.table().index(field)
	i := row - 1
	if col < 0 || i < 0 || i >= len(m.grid) || col >= len(m.grid[i]) {
		return ""
	}
	return m.grid[i][col]
}

// SetCell overwrites a cell as an operator editing the sheet would.
func (m *MemoryStore) SetCell(row int, field, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	col := m.table().index(field)
	i := row - 1
	if col < 0 || i < 0 || i >= len(m.grid) {
		return
	}
	for len(m.grid[i]) <= col {
		m.grid[i] = append(m.grid[i], "")
	}
	m.grid[i][col] = value
}
