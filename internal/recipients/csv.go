package recipients

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CSVStore implements Store on a local CSV file whose first line is the
// header. The file is re-read on every call so edits made while the loop
// runs are seen; writes replace the file atomically.
type CSVStore struct {
	mu   sync.Mutex
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Name() string {
	return "csv"
}

func (s *CSVStore) read() ([][]string, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("recipient file does not exist: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading recipient file %s: %w", s.path, err)
	}
	return grid, nil
}

func (s *CSVStore) write(grid [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".recipients-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(grid); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing recipient file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *CSVStore) Fields(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.read()
	if err != nil {
		return nil, err
	}
	return newTable(grid, 1).header, nil
}

func (s *CSVStore) EnsureField(_ context.Context, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.read()
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return ErrEmptyHeader
	}
	if newTable(grid, 1).index(field) >= 0 {
		return nil
	}
	grid[0] = append(grid[0], field)
	return s.write(grid)
}

func (s *CSVStore) List(_ context.Context, statusField string, status Status) ([]Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.read()
	if err != nil {
		return nil, err
	}
	return newTable(grid, 1).filter(statusField, status), nil
}

func (s *CSVStore) Update(_ context.Context, row int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.read()
	if err != nil {
		return err
	}
	col := newTable(grid, 1).index(field)
	if col < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	i := row - 1
	if i < 1 || i >= len(grid) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	for len(grid[i]) <= col {
		grid[i] = append(grid[i], "")
	}
	grid[i][col] = value
	return s.write(grid)
}
