package recipients

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cell string
		want Status
	}{
		{"", NotSent},
		{"   ", NotSent},
		{"Not Sent", NotSent},
		{"not sent", NotSent},
		{"NotSent", NotSent},
		{"Sent", Sent},
		{" SENT ", Sent},
		{"failed", Failed},
		{"Bounced", Status("Bounced")},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseStatus(tt.cell))
		})
	}
}

func TestColumnLetter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A", ColumnLetter(1))
	assert.Equal(t, "Z", ColumnLetter(26))
	assert.Equal(t, "AA", ColumnLetter(27))
	assert.Equal(t, "AZ", ColumnLetter(52))
	assert.Equal(t, "ZZ", ColumnLetter(702))
	assert.Equal(t, "AAA", ColumnLetter(703))

	for _, n := range []int{1, 26, 27, 52, 703, 1000} {
		assert.Equal(t, n, columnNumber(ColumnLetter(n)))
	}
}

func TestRangeStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		col, row int
	}{
		{"Sheet1!A1:Z1000", 1, 1},
		{"Sheet1!C3:Z", 3, 3},
		{"Sheet1", 1, 1},
		{"'My Leads'!B2:F", 2, 2},
		{"A5:D", 1, 5},
		{"Sheet1!A:Z", 1, 1},
	}
	for _, tt := range tests {
		col, row, err := rangeStart(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.col, col, tt.in)
		assert.Equal(t, tt.row, row, tt.in)
	}

	_, _, err := rangeStart("Sheet1!1A")
	require.Error(t, err)
}

func TestRangeEndColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in  string
		end int
	}{
		{"Sheet1!A1:Z1000", 26},
		{"Sheet1!C3:AB", 28},
		{"'My Leads'!B2:F", 6},
		{"Sheet1", 0},
		{"Sheet1!A1:1000", 0},
		{"A5:D", 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.end, rangeEndColumn(tt.in), tt.in)
	}
}

func TestMemoryStore_ListFiltersAndKeepsOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore(
		[]string{"email", "name", "Status"},
		[]string{"a@example.com", "Ana", "Sent"},
		[]string{"b@example.com", "Ben", ""},
		[]string{"", "", ""},
		[]string{"c@example.com", "Cy", "Not Sent"},
		[]string{"d@example.com", "Di", "Failed"},
		[]string{"e@example.com"},
	)

	got, err := store.List(ctx, "Status", NotSent)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].Row)
	assert.Equal(t, "Ben", got[0].Get("name"))
	assert.Equal(t, 5, got[1].Row)
	assert.Equal(t, 7, got[2].Row)
	assert.True(t, got[2].Has("name"))
	assert.Equal(t, "", got[2].Get("name"))

	failed, err := store.List(ctx, "Status", Failed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "d@example.com", failed[0].Get("email"))
}

func TestMemoryStore_UpdateAndEnsureField(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore([]string{"email"}, []string{"a@example.com"})

	all, err := store.List(ctx, "Status", NotSent)
	require.NoError(t, err)
	require.Len(t, all, 1, "missing status column reads as not sent")

	err = store.Update(ctx, 2, "Status", "Sent")
	require.ErrorIs(t, err, ErrUnknownField)

	require.NoError(t, store.EnsureField(ctx, "Status"))
	require.NoError(t, store.EnsureField(ctx, "Status"))
	fields, err := store.Fields(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "Status"}, fields)

	require.NoError(t, store.Update(ctx, 2, "Status", "Sent"))
	assert.Equal(t, "Sent", store.Cell(2, "Status"))

	require.ErrorIs(t, store.Update(ctx, 1, "Status", "Sent"), ErrRowOutOfRange)
	require.ErrorIs(t, store.Update(ctx, 3, "Status", "Sent"), ErrRowOutOfRange)

	boom := errors.New("boom")
	store.OnUpdate = func(int, string, string) error { return boom }
	require.ErrorIs(t, store.Update(ctx, 2, "Status", "Failed"), boom)
	assert.Equal(t, "Sent", store.Cell(2, "Status"))
}

func TestCSVStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"email,name,sector\n"+
			"ana@example.com,Ana,Law Firm\n"+
			"ben@example.com,\"Ben, Jr.\",Retail\n"), 0o644))

	store := NewCSVStore(path)
	assert.Equal(t, "csv", store.Name())

	require.NoError(t, store.EnsureField(ctx, "Status"))
	fields, err := store.Fields(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "name", "sector", "Status"}, fields)

	got, err := store.List(ctx, "Status", NotSent)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ben, Jr.", got[1].Get("name"))

	require.NoError(t, store.Update(ctx, 2, "Status", "Sent"))

	got, err = store.List(ctx, "Status", NotSent)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Row)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ana@example.com,Ana,Law Firm,Sent\n")
	assert.Contains(t, string(data), "\"Ben, Jr.\"")

	require.ErrorIs(t, store.Update(ctx, 9, "Status", "Sent"), ErrRowOutOfRange)
	require.ErrorIs(t, store.Update(ctx, 2, "Nope", "x"), ErrUnknownField)
}

func TestCSVStore_MissingFile(t *testing.T) {
	t.Parallel()

	store := NewCSVStore(filepath.Join(t.TempDir(), "none.csv"))
	_, err := store.List(context.Background(), "Status", NotSent)
	require.Error(t, err)
}
