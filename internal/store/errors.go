package store

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/bizledger/internal/errs"
)

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// wrapWriteError maps Firestore write failures onto the domain error types.
func wrapWriteError(operation, message string, err error) error {
	switch {
	case isAlreadyExists(err):
		return errs.NewAlreadyExistsError(message + " already exists")
	case isNotFound(err):
		return errs.NewNotFoundError(message + " not found")
	default:
		return errs.NewDatabaseError(operation, "failed to "+operation+" "+message, err)
	}
}
