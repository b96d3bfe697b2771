package grpc

import (
	"errors"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/docstore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus converts service errors to gRPC status errors. Messages of
// internal failures are not passed on.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorInvalidCredentials):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, docstore.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorClaimLocked):
		return status.Error(codes.FailedPrecondition, common.ErrorClaimLocked.Error())
	case errors.Is(err, docstore.ErrDecrypt):
		return status.Error(codes.DataLoss, "document could not be decrypted (corrupted or wrong key)")
	}
	return status.Error(codes.Internal, "internal error")
}
