package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CultureMechCoreServer is the ingestion contract external fetchers use to
// submit Layer 3 records and query run history without shelling out to
// cmd/culturemech. Messages are carried as structpb.Struct/wrapperspb values
// rather than a hand-generated protoc-gen-go package: the request/response
// shapes are small and stable enough that the well-known protobuf types cover
// them without a .proto build step.
type CultureMechCoreServer interface {
	// SubmitLayer3Record validates and writes a normalized_yaml record. The
	// input Struct carries "source", "key", and "yaml_content" string
	// fields; the response carries "accepted" (bool) and "validation_errors"
	// (list of strings).
	SubmitLayer3Record(context.Context, *structpb.Struct) (*structpb.Struct, error)

	// GetRunReport returns the most recently recorded stats.RunReport for
	// the named command, or {"found": false} if none has been recorded yet.
	GetRunReport(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)

	// GetMappingStats returns the most recently recorded mapping cascade
	// snapshot, or {"found": false} if none has been recorded yet.
	GetMappingStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// CultureMechCore_ServiceDesc is the grpc.ServiceDesc for CultureMechCoreServer,
// written by hand in place of protoc-gen-go-grpc output (see the
// CultureMechCoreServer doc above for why).
var CultureMechCore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "culturemech.v1.CultureMechCore",
	HandlerType: (*CultureMechCoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitLayer3Record", Handler: cultureMechCoreSubmitLayer3RecordHandler},
		{MethodName: "GetRunReport", Handler: cultureMechCoreGetRunReportHandler},
		{MethodName: "GetMappingStats", Handler: cultureMechCoreGetMappingStatsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "culturemech/v1/culturemech.proto",
}

func cultureMechCoreSubmitLayer3RecordHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CultureMechCoreServer).SubmitLayer3Record(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/culturemech.v1.CultureMechCore/SubmitLayer3Record"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CultureMechCoreServer).SubmitLayer3Record(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func cultureMechCoreGetRunReportHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CultureMechCoreServer).GetRunReport(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/culturemech.v1.CultureMechCore/GetRunReport"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CultureMechCoreServer).GetRunReport(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func cultureMechCoreGetMappingStatsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CultureMechCoreServer).GetMappingStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/culturemech.v1.CultureMechCore/GetMappingStats"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CultureMechCoreServer).GetMappingStats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
