package protobuf

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/toolsascode/wildebeest/internal/api/http/dto"
	"github.com/toolsascode/wildebeest/internal/auth"
	"github.com/toolsascode/wildebeest/internal/executor"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/queue"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "wildebeest.v1.Wildebeest"

// WildebeestServer is the server API for the Wildebeest service. Requests
// and responses are structs whose fields mirror the HTTP API bodies.
type WildebeestServer interface {
	State(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Migrate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	JumpState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPlugins(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Wildebeest service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WildebeestServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("State", WildebeestServer.State),
		unary("Migrate", WildebeestServer.Migrate),
		unary("JumpState", WildebeestServer.JumpState),
		unary("ListPlugins", WildebeestServer.ListPlugins),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wildebeest/v1/wildebeest.proto",
}

// FullMethod returns the invocation path of a service method
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary(method string, call func(WildebeestServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(WildebeestServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(WildebeestServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Server implements WildebeestServer on top of the executor
type Server struct {
	executor *executor.Executor
}

// NewServer creates a new gRPC server
func NewServer(exec *executor.Executor) *Server {
	return &Server{
		executor: exec,
	}
}

// Register binds srv to the gRPC server
func Register(s grpc.ServiceRegistrar, srv WildebeestServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// AuthInterceptor rejects calls that do not carry the API token as a
// bearer "authorization" metadata entry.
func AuthInterceptor(apiToken string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		var header string
		if values := md.Get("authorization"); len(values) > 0 {
			header = values[0]
		}
		token, err := auth.ExtractToken(header)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		if err := auth.ValidateToken(apiToken, token); err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(ctx, req)
	}
}

// State reports the current state of a resource instance
func (s *Server) State(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	job, err := jobFromRequest(req, queue.OperationState)
	if err != nil {
		return nil, err
	}

	result, err := s.executor.RunJob(withExecutionContext(ctx, "State"), job)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to run state: %v", err)
	}
	return respond(result)
}

// Migrate runs the migrations leading to the requested target state
func (s *Server) Migrate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.submit(ctx, req, queue.OperationMigrate, "Migrate")
}

// JumpState records the requested target state without running migrations
func (s *Server) JumpState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.submit(ctx, req, queue.OperationJumpState, "JumpState")
}

// ListPlugins lists the registered plugin groups
func (s *Server) ListPlugins(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(dto.PluginsResponse{Plugins: s.executor.GetRegistry().Groups()})
}

func (s *Server) submit(ctx context.Context, req *structpb.Struct, op queue.Operation, method string) (*structpb.Struct, error) {
	job, err := jobFromRequest(req, op)
	if err != nil {
		return nil, err
	}

	submitted, err := s.executor.Submit(withExecutionContext(ctx, method), job)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to run %s: %v", op, err)
	}
	if submitted.Queued {
		return toStruct(dto.OperationResponse{
			JobID:     submitted.JobID,
			Queued:    true,
			Operation: string(op),
			Applied:   []string{},
			Results:   []dto.AssertionResult{},
			Errors:    []string{},
		})
	}
	return respond(submitted.Result)
}

func withExecutionContext(ctx context.Context, method string) context.Context {
	executedBy := "grpc_user"
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("x-executed-by"); len(values) > 0 && values[0] != "" {
			executedBy = values[0]
		}
	}
	return executor.SetExecutionContext(ctx, executedBy, "grpc", map[string]interface{}{
		"method": FullMethod(method),
	})
}

func jobFromRequest(req *structpb.Struct, op queue.Operation) (*queue.Job, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	r := dto.OperationRequest{
		Resource:     stringField(req, "resource"),
		ResourcePath: stringField(req, "resource_path"),
		Instance:     stringField(req, "instance"),
		InstancePath: stringField(req, "instance_path"),
		InstanceName: stringField(req, "instance_name"),
		Target:       stringField(req, "target"),
	}
	if md := req.GetFields()["metadata"].GetStructValue(); md != nil {
		r.Metadata = md.AsMap()
	}

	job := r.Job(op)
	if err := job.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return job, nil
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// respond converts a job result into a response, or into a status error
// carrying the response as its detail when the operation failed.
func respond(result *queue.JobResult) (*structpb.Struct, error) {
	body, err := toStruct(dto.FromJobResult(result))
	if err != nil {
		return nil, err
	}
	if result.ErrorKind == "" && len(result.Errors) == 0 {
		return body, nil
	}

	st := status.New(CodeFor(model.ErrorKind(result.ErrorKind)), fmt.Sprint(result.Errors))
	if detailed, err := st.WithDetails(body); err == nil {
		st = detailed
	}
	return nil, st.Err()
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// CodeFor maps an error kind to a gRPC status code
func CodeFor(kind model.ErrorKind) codes.Code {
	switch kind {
	case "", model.KindInvalidStateSpecified, model.KindUnknownStateSpecified,
		model.KindTargetNotSpecified, model.KindInvalidDefinition, model.KindIncompatibleInstance:
		return codes.InvalidArgument
	case model.KindIndeterminateState, model.KindMigrationNotPossible,
		model.KindAmbiguousPath, model.KindJumpStateFailed:
		return codes.FailedPrecondition
	case model.KindAssertionFailed, model.KindMigrationFailed:
		return codes.Aborted
	case model.KindPluginNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}
