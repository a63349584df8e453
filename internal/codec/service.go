package codec

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ssts.gate.v1.AdmissibilityService"

const evaluateMethod = "/" + ServiceName + "/Evaluate"

// AdmissibilityServer is the server API. Messages are google.protobuf.Struct:
// the request carries r, c and p; the response carries the evaluation record.
type AdmissibilityServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdmissibilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    evaluateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ssts/gate/v1/admissibility.proto",
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv AdmissibilityServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdmissibilityServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: evaluateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdmissibilityServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc
