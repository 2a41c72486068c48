package conn

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tabulo/tabulo/internal/auth"
	"github.com/tabulo/tabulo/internal/engine"
	"github.com/tabulo/tabulo/internal/store"
)

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	// don't manually set this. it comes from the client
	ReqId int `json:"__tabulo_client_req_id__"`
}

func NewErrorResponse(status int, err string) Response {
	return Response{Message: err, Status: status}
}

func NewResponse(status int, message string, data any) Response {
	return Response{Data: data, Message: message, Status: status}
}

func errorResponse(err error) Response {
	if store_error, ok := err.(*store.StoreError); ok {
		return NewErrorResponse(store_error.Status(), store_error.Error())
	}
	return NewErrorResponse(http.StatusBadRequest, err.Error())
}

type CreateDatasetRequest struct {
	Name       string `json:"name"`
	DateColumn string `json:"dateColumn"`
}

func CreateDatasetReqHandler(w *store.Workbench, raw []byte) Response {
	var req CreateDatasetRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	d, err := w.CreateDataset(req.Name)
	if err != nil {
		return errorResponse(err)
	}
	if req.DateColumn != "" {
		d.DateColumn = req.DateColumn
	}

	return NewResponse(http.StatusCreated,
		fmt.Sprintf("Created new dataset %s", d.Name), d.Stats())
}

type DatasetRequest struct {
	Dataset string `json:"dataset"`
}

func DropDatasetReqHandler(w *store.Workbench, raw []byte) Response {
	var req DatasetRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	if err := w.DropDataset(req.Dataset); err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Dropped dataset %s", req.Dataset), nil)
}

func ListDatasetsReqHandler(w *store.Workbench) Response {
	list := w.ListDatasets()
	return NewResponse(http.StatusOK, fmt.Sprintf("Found %d datasets", len(list)), list)
}

func DatasetStatsReqHandler(w *store.Workbench, raw []byte) Response {
	var req DatasetRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	d, err := w.GetDataset(req.Dataset)
	if err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK, fmt.Sprintf("Stats for dataset %s", d.Name), d.Stats())
}

type UpdateFieldRequest struct {
	Dataset string             `json:"dataset"`
	Field   engine.FieldConfig `json:"field"`
}

func UpdateFieldReqHandler(w *store.Workbench, raw []byte) Response {
	var req UpdateFieldRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	d, err := w.GetDataset(req.Dataset)
	if err != nil {
		return errorResponse(err)
	}
	if err := d.UpdateField(&req.Field); err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK,
		fmt.Sprintf("Updated field %s in dataset %s", req.Field.Name, d.Name), req.Field)
}

type ImportBatchRequest struct {
	Dataset    string       `json:"dataset"`
	Label      string       `json:"label"`
	ImportDate string       `json:"importDate"`
	Rows       []engine.Row `json:"rows"`
}

func ImportBatchReqHandler(w *store.Workbench, raw []byte) Response {
	var req ImportBatchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	d, err := w.GetDataset(req.Dataset)
	if err != nil {
		return errorResponse(err)
	}
	if len(req.Rows) == 0 {
		return NewErrorResponse(http.StatusBadRequest, "import requires at least one row")
	}

	b := d.ImportBatch(req.Label, req.ImportDate, req.Rows)
	return NewResponse(http.StatusCreated,
		fmt.Sprintf("Imported %d rows into dataset %s", b.Len(), d.Name), b)
}

type BatchRequest struct {
	Dataset string `json:"dataset"`
	Batch   string `json:"batch"`
}

func DeleteBatchReqHandler(w *store.Workbench, raw []byte) Response {
	var req BatchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	d, err := w.GetDataset(req.Dataset)
	if err != nil {
		return errorResponse(err)
	}
	if err := d.DeleteBatch(req.Batch); err != nil {
		return errorResponse(err)
	}
	return NewResponse(http.StatusOK,
		fmt.Sprintf("Deleted batch %s from dataset %s", req.Batch, d.Name), nil)
}

func ListBatchesReqHandler(w *store.Workbench, raw []byte) Response {
	var req DatasetRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	d, err := w.GetDataset(req.Dataset)
	if err != nil {
		return errorResponse(err)
	}
	batches := d.ListBatches()
	return NewResponse(http.StatusOK,
		fmt.Sprintf("Found %d batches in dataset %s", len(batches), d.Name), batches)
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func CreateUserReqHandler(w *store.Workbench, raw []byte) Response {
	var req CreateUserRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return NewErrorResponse(http.StatusBadRequest, "user requires a name")
	}
	for _, u := range w.Users {
		if u.Name == req.Name {
			return NewErrorResponse(http.StatusConflict,
				fmt.Sprintf("User already exists with name %s", req.Name))
		}
	}

	user := auth.NewUser(req.Name, req.Password, auth.ParseRole(req.Role))
	w.Users.Set(user.Id, user)
	return NewResponse(http.StatusCreated, fmt.Sprintf("Created new user %s", user.Id), nil)
}

type DeleteUserRequest struct {
	Id string `json:"id"`
}

func DeleteUserReqHandler(w *store.Workbench, raw []byte) Response {
	var req DeleteUserRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	if !w.Users.Has(req.Id) {
		return NewErrorResponse(http.StatusNotFound, fmt.Sprintf("User %s not found", req.Id))
	}
	if w.Users.Get(req.Id).IsRoot {
		return NewErrorResponse(http.StatusForbidden, "cannot delete root user")
	}
	w.Users.Delete(req.Id)
	return NewResponse(http.StatusOK, fmt.Sprintf("Deleted user %s", req.Id), nil)
}
