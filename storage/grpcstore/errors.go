package grpcstore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"examlock.dev/sebconf/storage"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		// Server uses InvalidArgument for malformed/undefined IDs.
		return storage.ErrInvalidID
	case codes.DataLoss:
		// Server uses DataLoss when bytes do not match the requested ID.
		return storage.ErrIDMismatch
	case codes.FailedPrecondition:
		return storage.ErrImmutable
	default:
		// Best-effort: preserve known storage error messages.
		switch st.Message() {
		case storage.ErrNotFound.Error():
			return storage.ErrNotFound
		case storage.ErrInvalidID.Error():
			return storage.ErrInvalidID
		case storage.ErrIDMismatch.Error():
			return storage.ErrIDMismatch
		case storage.ErrImmutable.Error():
			return storage.ErrImmutable
		default:
			return err
		}
	}
}
