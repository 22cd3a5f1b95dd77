package dataset

// Dataset is an in-memory table read from delimited text.
// Values keep the exact text of the source cell.
type Dataset struct {
	Columns []string
	Rows    [][]string

	// Index holds each row's zero-based position in the source file and serves as its identity
	Index []int
}

// New creates a dataset whose index runs 0..len(rows)-1
func New(columns []string, rows [][]string) *Dataset {
	index := make([]int, len(rows))
	for i := range index {
		index[i] = i
	}
	return &Dataset{
		Columns: columns,
		Rows:    rows,
		Index:   index,
	}
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Shape returns (rows, columns)
func (d *Dataset) Shape() (int, int) {
	if d == nil {
		return 0, 0
	}
	return len(d.Rows), len(d.Columns)
}

// Row returns row i as a column name to value mapping
func (d *Dataset) Row(i int) map[string]string {
	row := make(map[string]string, len(d.Columns))
	for j, col := range d.Columns {
		if j < len(d.Rows[i]) {
			row[col] = d.Rows[i][j]
		}
	}
	return row
}

// Take returns a dataset holding the rows at the given positions, in that order.
// Columns are shared with d; the row and index slices are new.
func (d *Dataset) Take(positions []int) *Dataset {
	rows := make([][]string, len(positions))
	index := make([]int, len(positions))
	for i, p := range positions {
		rows[i] = d.Rows[p]
		index[i] = d.Index[p]
	}
	return &Dataset{
		Columns: d.Columns,
		Rows:    rows,
		Index:   index,
	}
}
