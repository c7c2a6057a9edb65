// Package canopyrpc defines the CanopyService gRPC contract. Requests and
// responses travel as google.protobuf.Struct messages; codec.go maps them to
// the canopy model types.
package canopyrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "olivecanopy.CanopyService"

const (
	ComputeFaparMethod         = "/" + ServiceName + "/ComputeFapar"
	ComputeTranspirationMethod = "/" + ServiceName + "/ComputeTranspiration"
)

// CanopyServiceServer is the server API for CanopyService.
type CanopyServiceServer interface {
	ComputeFapar(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeTranspiration(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedCanopyServiceServer can be embedded for forward compatibility.
type UnimplementedCanopyServiceServer struct{}

func (UnimplementedCanopyServiceServer) ComputeFapar(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ComputeFapar not implemented")
}

func (UnimplementedCanopyServiceServer) ComputeTranspiration(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ComputeTranspiration not implemented")
}

func RegisterCanopyServiceServer(s grpc.ServiceRegistrar, srv CanopyServiceServer) {
	s.RegisterService(&canopyServiceDesc, srv)
}

func unaryHandler(method string, call func(CanopyServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CanopyServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CanopyServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var canopyServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CanopyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ComputeFapar",
			Handler:    unaryHandler(ComputeFaparMethod, CanopyServiceServer.ComputeFapar),
		},
		{
			MethodName: "ComputeTranspiration",
			Handler:    unaryHandler(ComputeTranspirationMethod, CanopyServiceServer.ComputeTranspiration),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "canopy.proto",
}

// CanopyServiceClient is the client API for CanopyService.
type CanopyServiceClient interface {
	ComputeFapar(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ComputeTranspiration(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type canopyServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCanopyServiceClient(cc grpc.ClientConnInterface) CanopyServiceClient {
	return &canopyServiceClient{cc}
}

func (c *canopyServiceClient) ComputeFapar(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ComputeFaparMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *canopyServiceClient) ComputeTranspiration(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ComputeTranspirationMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
