package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderEnsure(t *testing.T) {
	h := NewHeader([]string{"A", "B"})

	assert.True(t, h.Ensure("C"))
	assert.False(t, h.Ensure("C"), "second ensure must be a no-op")
	assert.False(t, h.Ensure("A"))
	assert.Equal(t, []string{"A", "B", "C"}, h.Columns())
	assert.Equal(t, 3, h.Len())
}

func TestNewHeaderDropsRepeatedNames(t *testing.T) {
	h := NewHeader([]string{"A", "B", "A"})
	assert.Equal(t, []string{"A", "B"}, h.Columns())
}

func TestTableFromRows(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		wantCols []string
		wantLen  int
		check    func(t *testing.T, tbl *Table)
	}{
		{
			name:     "empty input",
			rows:     nil,
			wantCols: []string{},
			wantLen:  0,
		},
		{
			name:     "header only",
			rows:     [][]string{{"A", "B"}},
			wantCols: []string{"A", "B"},
			wantLen:  0,
		},
		{
			name:     "short row leaves column absent",
			rows:     [][]string{{"A", "B"}, {"1"}},
			wantCols: []string{"A", "B"},
			wantLen:  1,
			check: func(t *testing.T, tbl *Table) {
				_, ok := tbl.Records[0].Get("B")
				assert.False(t, ok)
				assert.Equal(t, []string{"1", ""}, tbl.Records[0].Values(tbl.Header))
			},
		},
		{
			name:     "long row drops extra fields",
			rows:     [][]string{{"A"}, {"1", "2"}},
			wantCols: []string{"A"},
			wantLen:  1,
			check: func(t *testing.T, tbl *Table) {
				assert.Equal(t, [][]string{{"1"}}, tbl.Rows())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := TableFromRows(tt.rows)
			require.NotNil(t, tbl)
			assert.Equal(t, tt.wantCols, tbl.Header.Columns())
			assert.Equal(t, tt.wantLen, tbl.Len())
			if tt.check != nil {
				tt.check(t, tbl)
			}
		})
	}
}

func TestHeaderGrowthAppliesToBufferedRecords(t *testing.T) {
	tbl := TableFromRows([][]string{{"A"}, {"1"}, {"2"}})

	tbl.Header.Ensure(ColumnZipCode)
	tbl.Records[1][ColumnZipCode] = "45202"

	assert.Equal(t, [][]string{{"1", ""}, {"2", "45202"}}, tbl.Rows())
}

func TestTableCloneIsIndependent(t *testing.T) {
	tbl := TableFromRows([][]string{{"A"}, {"1"}})
	cp := tbl.Clone()

	cp.Header.Ensure("B")
	cp.Records[0]["A"] = "changed"

	assert.Equal(t, []string{"A"}, tbl.Header.Columns())
	assert.Equal(t, "1", tbl.Records[0]["A"])
}

func TestIssueString(t *testing.T) {
	issue := Issue{Row: 3, Description: "negative value in 'Gallons Purchased': '-5'"}
	assert.Equal(t, "row 3: negative value in 'Gallons Purchased': '-5'", issue.String())
}
