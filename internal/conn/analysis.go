package conn

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tabulo/tabulo/internal/engine"
	"github.com/tabulo/tabulo/internal/store"
	"github.com/tabulo/tabulo/pkg"
)

// drilldownRowCap bounds the rows a single drill-down response carries.
const drilldownRowCap = 100

type PivotRequest struct {
	Dataset string               `json:"dataset"`
	Batches []string             `json:"batches,omitempty"`
	Period  *engine.PeriodWindow `json:"periodFilter,omitempty"`
	Config  engine.PivotConfig   `json:"config"`
	// Formatted asks for display strings instead of raw aggregates.
	Formatted bool `json:"formatted"`
}

func ComputePivotReqHandler(w *store.Workbench, ctx *ConnCtx, raw []byte) Response {
	var req PivotRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	d, err := w.GetDataset(req.Dataset)
	if err != nil {
		return errorResponse(err)
	}
	rows, err := d.ResolveRows(req.Batches, w.ResolveDataset)
	if err != nil {
		return errorResponse(err)
	}
	if req.Period != nil {
		rows = ctx.Engine.FilterByPeriod(rows, d.DateColumn, *req.Period)
	}

	res := ctx.Engine.ComputePivot(rows, req.Config)
	if res == nil {
		return NewResponse(http.StatusOK, "Nothing to compute", nil)
	}

	if req.Formatted {
		formatted := engine.FormatPivot(res, req.Config, d.FieldLookup(w.ResolveDataset))
		return NewResponse(http.StatusOK,
			fmt.Sprintf("Computed pivot with %d rows", len(formatted.Rows)), formatted)
	}
	return NewResponse(http.StatusOK,
		fmt.Sprintf("Computed pivot with %d rows", len(res.DisplayRows)), res)
}

type TemporalRequest struct {
	Dataset       string                `json:"dataset"`
	Config        engine.TemporalConfig `json:"config"`
	ShowSubtotals bool                  `json:"showSubtotals"`
}

func TemporalReqHandler(w *store.Workbench, ctx *ConnCtx, raw []byte) Response {
	var req TemporalRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	d, err := w.GetDataset(req.Dataset)
	if err != nil {
		return errorResponse(err)
	}

	// each source resolves independently so snapshots can live in other
	// datasets
	source_data := pkg.Map[string, []engine.Row]{}
	for _, src := range req.Config.Sources {
		src_dataset := d
		if src.DatasetId != "" && src.DatasetId != d.Id {
			src_dataset, err = w.GetDataset(src.DatasetId)
			if err != nil {
				return errorResponse(err)
			}
		}
		rows, err := src_dataset.ResolveRows([]string{src.BatchId}, w.ResolveDataset)
		if err != nil {
			return errorResponse(err)
		}
		source_data.Set(src.Id, rows)
	}

	res := ctx.Engine.CalculateComparison(source_data, req.Config, d.DateColumn, req.ShowSubtotals)
	return NewResponse(http.StatusOK,
		fmt.Sprintf("Compared %d sources over %d groups", len(req.Config.Sources), len(res.Results)), res)
}

type DrilldownRequest struct {
	Dataset   string                  `json:"dataset"`
	RowFields []string                `json:"rowFields"`
	RowKeys   []string                `json:"rowKeys"`
	ColField  string                  `json:"colField,omitempty"`
	ColKey    string                  `json:"colKey,omitempty"`
	Filters   pkg.Map[string, string] `json:"filters,omitempty"`
	Batch     string                  `json:"batch,omitempty"`
	Limit     int                     `json:"limit,omitempty"`
}

type DrilldownResult struct {
	Key     string                  `json:"key"`
	Filters pkg.Map[string, string] `json:"filters"`
	Rows    []engine.Row            `json:"rows"`
	Total   int                     `json:"total"`
}

func DrilldownReqHandler(w *store.Workbench, ctx *ConnCtx, raw []byte) Response {
	var req DrilldownRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	d, err := w.GetDataset(req.Dataset)
	if err != nil {
		return errorResponse(err)
	}

	filters := engine.BuildDrilldownFilters(
		req.RowFields, req.RowKeys, req.ColField, req.ColKey, req.Filters, req.Batch)

	var batch_ids []string
	if req.Batch != "" {
		batch_ids = []string{req.Batch}
	}
	rows, err := d.ResolveRows(batch_ids, w.ResolveDataset)
	if err != nil {
		return errorResponse(err)
	}
	rows = engine.ApplyFilters(rows, engine.DrilldownRules(filters))

	limit := req.Limit
	if limit <= 0 || limit > drilldownRowCap {
		limit = drilldownRowCap
	}
	total := len(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}

	res := DrilldownResult{
		Key:     engine.DrilldownKey(req.RowKeys, req.ColKey),
		Filters: filters,
		Rows:    rows,
		Total:   total,
	}
	return NewResponse(http.StatusOK,
		fmt.Sprintf("Found %d rows behind cell", total), res)
}
