package conn

import (
	"fmt"
	"net/http"

	"github.com/tabulo/tabulo/internal/auth"
	"github.com/tabulo/tabulo/internal/store"
)

type RequestAction string

const (
	// dataset actions
	RequestActionCreateDataset RequestAction = "createDataset"
	RequestActionDropDataset   RequestAction = "dropDataset"
	RequestActionListDatasets  RequestAction = "listDatasets"
	RequestActionDatasetStats  RequestAction = "datasetStats"
	RequestActionUpdateField   RequestAction = "updateFieldConfig"

	// batch actions
	RequestActionImportBatch RequestAction = "importBatch"
	RequestActionDeleteBatch RequestAction = "deleteBatch"
	RequestActionListBatches RequestAction = "listBatches"

	// analysis actions
	RequestActionComputePivot RequestAction = "computePivot"
	RequestActionTemporal     RequestAction = "temporalComparison"
	RequestActionDrilldown    RequestAction = "drilldown"

	// user actions
	RequestActionCreateUser RequestAction = "createUser"
	RequestActionDeleteUser RequestAction = "deleteUser"
)

func (action RequestAction) IsReadOnly() bool {
	switch action {
	case RequestActionListDatasets, RequestActionDatasetStats, RequestActionListBatches,
		RequestActionComputePivot, RequestActionTemporal, RequestActionDrilldown:
		return true
	}
	return false
}

func (action RequestAction) IsAdminAction() bool {
	return action == RequestActionCreateUser || action == RequestActionDeleteUser
}

// ActionHandler checks clearance, takes the workbench lock appropriate for
// the action, and dispatches. Analysis actions hold the read lock for their
// whole computation so imports cannot mutate rows mid-pivot.
func ActionHandler(w *store.Workbench, action RequestAction, ctx *ConnCtx, raw []byte) Response {
	if action.IsAdminAction() {
		if !ctx.HasClearance(auth.UserRoleAdmin) {
			return NewErrorResponse(http.StatusForbidden, "insufficient permissions")
		}
	} else if action.IsReadOnly() {
		if !ctx.HasClearance(auth.UserRoleViewer) {
			return NewErrorResponse(http.StatusForbidden, "insufficient permissions")
		}
	} else if !ctx.HasClearance(auth.UserRoleEditor) {
		return NewErrorResponse(http.StatusForbidden, "insufficient permissions")
	}

	if action.IsReadOnly() {
		w.Locker.RLock()
		defer w.Locker.RUnlock()
	} else {
		w.Locker.Lock()
		defer w.Locker.Unlock()
	}

	switch action {
	case RequestActionCreateDataset:
		return CreateDatasetReqHandler(w, raw)
	case RequestActionDropDataset:
		return DropDatasetReqHandler(w, raw)
	case RequestActionListDatasets:
		return ListDatasetsReqHandler(w)
	case RequestActionDatasetStats:
		return DatasetStatsReqHandler(w, raw)
	case RequestActionUpdateField:
		return UpdateFieldReqHandler(w, raw)
	case RequestActionImportBatch:
		return ImportBatchReqHandler(w, raw)
	case RequestActionDeleteBatch:
		return DeleteBatchReqHandler(w, raw)
	case RequestActionListBatches:
		return ListBatchesReqHandler(w, raw)
	case RequestActionComputePivot:
		return ComputePivotReqHandler(w, ctx, raw)
	case RequestActionTemporal:
		return TemporalReqHandler(w, ctx, raw)
	case RequestActionDrilldown:
		return DrilldownReqHandler(w, ctx, raw)
	case RequestActionCreateUser:
		return CreateUserReqHandler(w, raw)
	case RequestActionDeleteUser:
		return DeleteUserReqHandler(w, raw)
	default:
		return NewErrorResponse(http.StatusBadRequest, fmt.Sprintf("unknown action: %s", action))
	}
}
