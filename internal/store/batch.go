package store

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tabulo/tabulo/internal/engine"
	"github.com/tabulo/tabulo/pkg"
	sorted "github.com/tobshub/go-sortedmap"
)

// BatchRow maps an imported column name to its raw cell value.
type BatchRow = engine.Row

func GetRowId(r BatchRow) int {
	return pkg.NumToInt(r.Get(engine.RowIdField))
}

func SetRowId(r BatchRow, id int) {
	r.Set(engine.RowIdField, id)
}

func batchRowsComparisonFunc(a, b BatchRow) bool {
	return GetRowId(a) < GetRowId(b)
}

// Batch is one imported snapshot. Rows are immutable after import; analysis
// always reads the batch whole, so rows live in one ordered map keyed by a
// per-batch id.
type Batch struct {
	Id    string
	Label string
	// ImportDate is the snapshot date in ISO form, "2006-01-02".
	ImportDate string
	Year       int
	RowCount   int

	IdTracker atomic.Int64                     `json:"-"`
	Rows      *sorted.SortedMap[int, BatchRow] `json:"-"`
}

func NewBatch(label, import_date string) *Batch {
	b := &Batch{
		Id:         uuid.New().String(),
		Label:      label,
		ImportDate: import_date,
		Year:       yearOf(import_date),
	}
	b.Rows = sorted.New[int, BatchRow](0, batchRowsComparisonFunc)
	return b
}

func yearOf(import_date string) int {
	if len(import_date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(import_date[:4])
	if err != nil {
		return 0
	}
	return year
}

// Insert assigns the row its batch-local id and the batch pin used by
// drill-down, then stores it. Returns the assigned id.
func (b *Batch) Insert(row BatchRow) int {
	id := int(b.IdTracker.Add(1))
	SetRowId(row, id)
	row.Set(engine.BatchField, b.Id)
	if !b.Rows.Insert(id, row) {
		b.Rows.Replace(id, row)
	}
	b.RowCount = b.Rows.Len()
	return id
}

func (b *Batch) Row(id int) BatchRow {
	v, ok := b.Rows.Get(id)
	if !ok {
		return nil
	}
	return v
}

func (b *Batch) Len() int { return b.Rows.Len() }

// AllRows returns the batch's rows in id order.
func (b *Batch) AllRows() []engine.Row {
	rows := make([]engine.Row, 0, b.Rows.Len())
	iter_ch, err := b.Rows.IterCh()
	if err != nil {
		return rows
	}
	for rec := range iter_ch.Records() {
		rows = append(rows, rec.Val)
	}
	return rows
}

// restoreRows rebuilds the ordered map and id tracker from persisted rows.
func (b *Batch) restoreRows(rows []BatchRow) {
	b.Rows = sorted.New[int, BatchRow](len(rows), batchRowsComparisonFunc)
	max_id := 0
	for _, row := range rows {
		id := GetRowId(row)
		if !b.Rows.Insert(id, row) {
			b.Rows.Replace(id, row)
		}
		if id > max_id {
			max_id = id
		}
	}
	b.IdTracker.Store(int64(max_id))
	b.RowCount = b.Rows.Len()
}

// TemporalSource describes this batch as a comparison source.
func (b *Batch) TemporalSource(dataset_id string) engine.TemporalSource {
	return engine.TemporalSource{
		Id:         b.Id,
		DatasetId:  dataset_id,
		BatchId:    b.Id,
		Label:      b.Label,
		ImportDate: b.ImportDate,
		Year:       b.Year,
	}
}
