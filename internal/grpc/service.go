package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "adlibrary.v1.AdLibraryService"

	searchMethod = "/" + ServiceName + "/Search"
)

// AdLibraryServer is the server side of the ad library service. Messages are
// plain structpb.Struct values so no generated code is needed.
type AdLibraryServer interface {
	Search(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the ad library service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdLibraryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Search",
			Handler:    searchHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "adlibrary/v1/adlibrary.proto",
}

// RegisterAdLibraryServer registers srv on s.
func RegisterAdLibraryServer(s grpc.ServiceRegistrar, srv AdLibraryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func searchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdLibraryServer).Search(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: searchMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdLibraryServer).Search(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the ad library service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Search runs one batch remotely.
func (c *Client) Search(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, searchMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
