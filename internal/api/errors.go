package api

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"chordsim/internal/cluster"
	"chordsim/internal/idspace"
	"chordsim/internal/ring"
)

// ErrorDomain is the ErrorInfo domain attached to every mapped error.
const ErrorDomain = "chordsim"

type errorKind struct {
	err    error
	code   codes.Code
	reason string
}

var errorKinds = []errorKind{
	{ring.ErrEmptyRing, codes.FailedPrecondition, "EMPTY_RING"},
	{ring.ErrUnknownNode, codes.NotFound, "UNKNOWN_NODE"},
	{ring.ErrDuplicateAddress, codes.AlreadyExists, "DUPLICATE_ADDRESS"},
	{ring.ErrDuplicateIdentifier, codes.AlreadyExists, "DUPLICATE_IDENTIFIER"},
	{cluster.ErrInvalidCount, codes.InvalidArgument, "INVALID_COUNT"},
	{idspace.ErrInvalidSize, codes.InvalidArgument, "INVALID_SPACE_SIZE"},
}

// ToStatus converts a domain error into a gRPC status error carrying an
// ErrorInfo detail. Unknown errors become codes.Internal.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			st, detailErr := status.New(k.code, err.Error()).WithDetails(&errdetails.ErrorInfo{
				Reason: k.reason,
				Domain: ErrorDomain,
			})
			if detailErr != nil {
				return status.Error(k.code, err.Error())
			}
			return st.Err()
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// remoteError keeps the server's message while unwrapping to the matching
// domain error.
type remoteError struct {
	msg string
	err error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.err }

// FromStatus converts a status error produced by ToStatus back into an
// error that matches the domain error with errors.Is.
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return err
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		for _, k := range errorKinds {
			if k.reason == info.GetReason() {
				return &remoteError{msg: st.Message(), err: k.err}
			}
		}
	}
	return err
}
