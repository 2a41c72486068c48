package store

import (
	"fmt"
	"net/http"
)

type StoreError struct {
	msg    string
	status int
}

func NewError(status int, msg string) *StoreError {
	return &StoreError{msg: msg, status: status}
}

func NewNotFoundError(kind, id string) *StoreError {
	return NewError(http.StatusNotFound, fmt.Sprintf("%s %s not found", kind, id))
}

func (e StoreError) Error() string { return e.msg }
func (e StoreError) Status() int   { return e.status }
