package store

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/tabulo/tabulo/internal/coerce"
	"github.com/tabulo/tabulo/internal/engine"
	"github.com/tabulo/tabulo/pkg"
)

// JoinSpec declares a left lookup onto another dataset: rows whose
// PrimaryKey value matches a secondary row's SecondaryKey value are enriched
// with that row's remaining columns.
type JoinSpec struct {
	DatasetId    string `json:"datasetId"`
	PrimaryKey   string `json:"primaryKey"`
	SecondaryKey string `json:"secondaryKey"`
}

type (
	DatasetFieldMap = pkg.InsertSortMap[string, *engine.FieldConfig]
	DatasetBatchMap = pkg.InsertSortMap[string, *Batch]
)

type Dataset struct {
	Id   string
	Name string
	// DateColumn is the column period filters read; defaults to "date".
	DateColumn string
	Fields     *DatasetFieldMap
	Batches    *DatasetBatchMap
	Join       *JoinSpec `json:",omitempty"`
}

func NewDataset(name string) *Dataset {
	return &Dataset{
		Id:         uuid.New().String(),
		Name:       name,
		DateColumn: "date",
		Fields:     pkg.NewInsertSortMap[string, *engine.FieldConfig](),
		Batches:    pkg.NewInsertSortMap[string, *Batch](),
	}
}

// ImportBatch registers a new snapshot. Unseen columns get a field config
// with a type inferred from the batch's first non-empty value.
func (d *Dataset) ImportBatch(label, import_date string, rows []engine.Row) *Batch {
	b := NewBatch(label, import_date)
	for _, row := range rows {
		b.Insert(row)
		d.registerFields(row)
	}
	d.Batches.Push(b.Id, b)
	return b
}

func (d *Dataset) registerFields(row engine.Row) {
	for field, value := range row {
		if strings.HasPrefix(field, engine.ReservedFieldPrefix) || d.Fields.Has(field) {
			continue
		}
		d.Fields.Push(field, &engine.FieldConfig{Name: field, Type: inferFieldType(value)})
	}
}

func inferFieldType(value any) engine.FieldType {
	switch v := value.(type) {
	case float64, int, int64:
		return engine.FieldTypeNumber
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return engine.FieldTypeText
		}
		if coerce.NewDateParser().Parse(s) != nil {
			return engine.FieldTypeDate
		}
		if coerce.IsNumeric(s) {
			return engine.FieldTypeNumber
		}
	}
	return engine.FieldTypeText
}

func (d *Dataset) GetBatch(id string) (*Batch, error) {
	if !d.Batches.Has(id) {
		return nil, NewNotFoundError("batch", id)
	}
	return d.Batches.Get(id), nil
}

func (d *Dataset) DeleteBatch(id string) error {
	if !d.Batches.Has(id) {
		return NewNotFoundError("batch", id)
	}
	d.Batches.Delete(id)
	return nil
}

// ListBatches returns batches in import order.
func (d *Dataset) ListBatches() []*Batch {
	batches := make([]*Batch, 0, d.Batches.Len())
	for _, id := range d.Batches.Sorted {
		batches = append(batches, d.Batches.Get(id))
	}
	return batches
}

// UpdateField replaces a field's config; the field must already exist so a
// typo cannot create a phantom column.
func (d *Dataset) UpdateField(cfg *engine.FieldConfig) error {
	if cfg == nil || cfg.Name == "" {
		return NewError(http.StatusBadRequest, "field config requires a name")
	}
	if !d.Fields.Has(cfg.Name) {
		return NewNotFoundError("field", cfg.Name)
	}
	d.Fields.Push(cfg.Name, cfg)
	return nil
}

// FieldLookup resolves field configs for display formatting, falling back
// to the joined dataset for columns the join contributed.
func (d *Dataset) FieldLookup(resolve func(id string) *Dataset) engine.FieldLookup {
	return func(field string) *engine.FieldConfig {
		if d.Fields.Has(field) {
			return d.Fields.Get(field)
		}
		if d.Join == nil || resolve == nil {
			return nil
		}
		if secondary := resolve(d.Join.DatasetId); secondary != nil && secondary.Fields.Has(field) {
			return secondary.Fields.Get(field)
		}
		return nil
	}
}

// ResolveRows collects the rows of the requested batches (every batch when
// batch_ids is empty), applying the dataset's join when a secondary dataset
// resolver is supplied.
func (d *Dataset) ResolveRows(batch_ids []string, resolve func(id string) *Dataset) ([]engine.Row, error) {
	ids := batch_ids
	if len(ids) == 0 {
		ids = d.Batches.Sorted
	}

	rows := []engine.Row{}
	for _, id := range ids {
		b, err := d.GetBatch(id)
		if err != nil {
			return nil, err
		}
		rows = append(rows, b.AllRows()...)
	}

	if d.Join != nil && resolve != nil {
		if secondary := resolve(d.Join.DatasetId); secondary != nil {
			secondary_rows, err := secondary.ResolveRows(nil, nil)
			if err != nil {
				return nil, err
			}
			rows = JoinRows(rows, secondary_rows, d.Join)
		}
	}

	return rows, nil
}

type DatasetStats struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	FieldCount int    `json:"fieldCount"`
	BatchCount int    `json:"batchCount"`
	RowCount   int    `json:"rowCount"`
}

func (d *Dataset) Stats() DatasetStats {
	stats := DatasetStats{
		Id:         d.Id,
		Name:       d.Name,
		FieldCount: d.Fields.Len(),
		BatchCount: d.Batches.Len(),
	}
	for _, id := range d.Batches.Sorted {
		stats.RowCount += d.Batches.Get(id).Len()
	}
	return stats
}

func (d *Dataset) Base(write_path string) string {
	return path.Join(write_path, d.Id)
}

// WriteToFile persists the dataset header as JSON and each batch's rows as
// a gob blob next to it.
func (d *Dataset) WriteToFile(write_path string) error {
	base := d.Base(write_path)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		if err := os.Mkdir(base, 0755); err != nil {
			return err
		}
	}

	header, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path.Join(base, "dataset.tabulo"), header, 0644); err != nil {
		return err
	}

	for _, id := range d.Batches.Sorted {
		b := d.Batches.Get(id)
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(b.AllRows()); err != nil {
			return err
		}
		if err := os.WriteFile(path.Join(base, id+".rows"), buf.Bytes(), 0644); err != nil {
			return err
		}
	}
	return nil
}

func NewDatasetFromPath(write_path, id string) (*Dataset, error) {
	base := path.Join(write_path, id)
	header, err := os.ReadFile(path.Join(base, "dataset.tabulo"))
	if err != nil {
		return nil, err
	}

	d := &Dataset{}
	if err := json.Unmarshal(header, d); err != nil {
		return nil, err
	}

	for _, batch_id := range d.Batches.Sorted {
		buf, err := os.ReadFile(path.Join(base, batch_id+".rows"))
		if err != nil {
			return nil, fmt.Errorf("failed to read batch %s: %w", batch_id, err)
		}
		rows := []BatchRow{}
		if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&rows); err != nil {
			return nil, err
		}
		d.Batches.Get(batch_id).restoreRows(rows)
	}
	return d, nil
}
