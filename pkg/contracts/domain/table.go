package domain

// Well-known columns of a fuel purchase export
const (
	ColumnTransactionDate  = "Transaction Date"
	ColumnDriverID         = "Driver ID"
	ColumnFuelType         = "Fuel Type"
	ColumnGallonsPurchased = "Gallons Purchased"
	ColumnGrossPrice       = "Gross Price"
	ColumnFullAddress      = "Full Address"

	// Columns appended by the pipeline
	ColumnZipCode        = "ZipCode"
	ColumnPricePerGallon = "Price Per Gallon"
)

// Header is the ordered list of column names shared by every record of a table.
// Names are unique; Ensure is the only way a header grows.
type Header struct {
	columns []string
	index   map[string]int
}

// NewHeader builds a header from column names. Repeated names keep their first position.
func NewHeader(columns []string) *Header {
	h := &Header{
		columns: make([]string, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		h.Ensure(c)
	}
	return h
}

// Ensure appends name unless it is already present and reports whether it was appended.
func (h *Header) Ensure(name string) bool {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	if _, ok := h.index[name]; ok {
		return false
	}
	h.index[name] = len(h.columns)
	h.columns = append(h.columns, name)
	return true
}

// Has reports whether the header contains name
func (h *Header) Has(name string) bool {
	if h == nil {
		return false
	}
	_, ok := h.index[name]
	return ok
}

// Columns returns a copy of the column names in order
func (h *Header) Columns() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.columns))
	copy(out, h.columns)
	return out
}

// Len returns the number of columns
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.columns)
}

// Clone returns an independent copy of the header
func (h *Header) Clone() *Header {
	return NewHeader(h.Columns())
}

// Record is one transaction keyed by column name. Column order comes from the
// owning table's Header, so a column added to the header applies to every record.
type Record map[string]string

// NewRecord zips column names with a raw row. Extra fields are ignored and
// missing fields are left absent; a repeated column name keeps the later value.
func NewRecord(columns, raw []string) Record {
	r := make(Record, len(columns))
	for i, col := range columns {
		if i >= len(raw) {
			break
		}
		r[col] = raw[i]
	}
	return r
}

// Get returns the value for col and whether the record carries it
func (r Record) Get(col string) (string, bool) {
	v, ok := r[col]
	return v, ok
}

// Values lays the record out in header order. Absent columns are written as "".
func (r Record) Values(h *Header) []string {
	cols := h.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = r[c]
	}
	return out
}

// Clone returns an independent copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is a fully materialized set of records with their header
type Table struct {
	Header  *Header
	Records []Record
}

// NewTable creates an empty table with the given columns
func NewTable(columns []string) *Table {
	return &Table{Header: NewHeader(columns)}
}

// TableFromRows treats the first row as the header and zips every following row with it.
func TableFromRows(rows [][]string) *Table {
	if len(rows) == 0 {
		return NewTable(nil)
	}
	t := NewTable(rows[0])
	t.Records = make([]Record, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		t.Records = append(t.Records, NewRecord(rows[0], raw))
	}
	return t
}

// Append adds a record to the table
func (t *Table) Append(r Record) {
	t.Records = append(t.Records, r)
}

// Len returns the number of data records
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Rows renders every record in header order, without the header row
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Values(t.Header)
	}
	return out
}

// Clone returns a deep copy so stages can work on their own rows
func (t *Table) Clone() *Table {
	out := &Table{
		Header:  t.Header.Clone(),
		Records: make([]Record, len(t.Records)),
	}
	for i, r := range t.Records {
		out.Records[i] = r.Clone()
	}
	return out
}

// RawTable keeps rows exactly as they were read, for outputs that must not be reformatted
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
