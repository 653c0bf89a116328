// Package grpcstore exposes an artifact store over gRPC, so sealed exam
// files can be published to and fetched from a central service.
package grpcstore

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ArtifactStoreServer is the server API for the ArtifactStore gRPC service.
//
// The service intentionally uses protobuf well-known wrapper types so this
// package does not require a protoc/codegen toolchain.
type ArtifactStoreServer interface {
	Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// UnimplementedArtifactStoreServer can be embedded for forward-compatible
// implementations.
type UnimplementedArtifactStoreServer struct{}

func (UnimplementedArtifactStoreServer) Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Put not implemented")
}
func (UnimplementedArtifactStoreServer) Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedArtifactStoreServer) Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Has not implemented")
}

// RegisterArtifactStoreServer registers the service on a gRPC server.
func RegisterArtifactStoreServer(s grpc.ServiceRegistrar, srv ArtifactStoreServer) {
	s.RegisterService(&ArtifactStore_ServiceDesc, srv)
}

// ArtifactStoreClient is the client API for the ArtifactStore gRPC service.
type ArtifactStoreClient interface {
	Put(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
}

type artifactStoreClient struct{ cc grpc.ClientConnInterface }

// NewArtifactStoreClient returns a client stub over cc.
func NewArtifactStoreClient(cc grpc.ClientConnInterface) ArtifactStoreClient {
	return &artifactStoreClient{cc: cc}
}

const (
	methodPut = "/examlock.sebconf.storage.v1.ArtifactStore/Put"
	methodGet = "/examlock.sebconf.storage.v1.ArtifactStore/Get"
	methodHas = "/examlock.sebconf.storage.v1.ArtifactStore/Has"
)

func (c *artifactStoreClient) Put(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodPut, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *artifactStoreClient) Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodGet, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *artifactStoreClient) Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, methodHas, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _ArtifactStore_Put_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ArtifactStoreServer).Put(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodPut}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ArtifactStoreServer).Put(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _ArtifactStore_Get_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ArtifactStoreServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGet}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ArtifactStoreServer).Get(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _ArtifactStore_Has_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ArtifactStoreServer).Has(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodHas}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ArtifactStoreServer).Has(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ArtifactStore_ServiceDesc is the grpc.ServiceDesc for the ArtifactStore
// service.
var ArtifactStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "examlock.sebconf.storage.v1.ArtifactStore",
	HandlerType: (*ArtifactStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Put", Handler: _ArtifactStore_Put_Handler},
		{MethodName: "Get", Handler: _ArtifactStore_Get_Handler},
		{MethodName: "Has", Handler: _ArtifactStore_Has_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "artifactstore.proto",
}
