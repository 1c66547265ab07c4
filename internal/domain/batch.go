package domain

import "errors"

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrBatchFailed      = errors.New("batch operation failed")
	ErrInvalidArgument  = errors.New("invalid argument")
)

type OperationStatus string

const (
	OperationPending   OperationStatus = "pending"
	OperationSucceeded OperationStatus = "succeeded"
	OperationFailed    OperationStatus = "failed"
)

type Operation struct {
	Name   string
	Status OperationStatus
	Err    error
}

// Batch holds the operations of the last submit attempt.
type Batch []Operation

func (b Batch) HasFailed() bool {
	for _, op := range b {
		if op.Status == OperationFailed {
			return true
		}
	}
	return false
}

func (b Batch) Failed() []string {
	names := make([]string, 0)
	for _, op := range b {
		if op.Status == OperationFailed {
			names = append(names, op.Name)
		}
	}
	return names
}
