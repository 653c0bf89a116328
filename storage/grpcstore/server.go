package grpcstore

import (
	"context"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"examlock.dev/sebconf/artifact"
	"examlock.dev/sebconf/storage"
)

// Server exposes a storage.Store over the ArtifactStore gRPC service.
type Server struct {
	UnimplementedArtifactStoreServer
	Store storage.Store
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	b := in.GetValue()
	// Enforce the content-ID contract on the server side too.
	expected, err := artifact.IDCid(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "artifact id computation failed")
	}
	id, err := s.Store.Put(b)
	if err != nil {
		return nil, mapErr(err)
	}
	if !id.Equals(expected) {
		return nil, status.Error(codes.DataLoss, storage.ErrIDMismatch.Error())
	}
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidID.Error())
	}
	b, err := s.Store.Get(id)
	if err != nil {
		return nil, mapErr(err)
	}
	got, err := artifact.IDCid(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "artifact id computation failed")
	}
	if !got.Equals(id) {
		return nil, status.Error(codes.DataLoss, storage.ErrIDMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidID.Error())
	}
	return wrapperspb.Bool(s.Store.Has(id)), nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case err == storage.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case err == storage.ErrInvalidID:
		return status.Error(codes.InvalidArgument, err.Error())
	case err == storage.ErrIDMismatch:
		return status.Error(codes.DataLoss, err.Error())
	case err == storage.ErrImmutable:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
