package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Full method names of the document service.
const (
	GetClaimMethod      = "/" + ServiceName + "/GetClaim"
	ListDocumentsMethod = "/" + ServiceName + "/ListDocuments"
)

// ClaimReader is the part of the claim service exposed over gRPC.
type ClaimReader interface {
	Get(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error)
}

// DocumentLister is the part of the document service exposed over gRPC.
type DocumentLister interface {
	List(ctx context.Context, p models.Principal, claimID string) ([]*models.ClaimDocument, error)
}

// documentServiceServer is what documentServiceDesc dispatches to. The
// messages are protobuf well-known types, so no generated code is needed.
type documentServiceServer interface {
	GetClaim(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	ListDocuments(ctx context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error)
}

var documentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*documentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetClaim", Handler: getClaimHandler},
		{MethodName: "ListDocuments", Handler: listDocumentsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cmcs/document_service",
}

type documentServer struct {
	claims ClaimReader
	docs   DocumentLister
}

// GetClaim returns the claim with the id in the request as a Struct.
func (s *documentServer) GetClaim(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	claim, err := s.claims.Get(ctx, p, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := structpb.NewStruct(claimFields(claim))
	if err != nil {
		return nil, toStatus(err)
	}
	return out, nil
}

// ListDocuments returns the documents of the claim with the id in the
// request. Stored file names are not part of the reply.
func (s *documentServer) ListDocuments(ctx context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	docs, err := s.docs.List(ctx, p, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(docs))
	for _, d := range docs {
		items = append(items, map[string]any{
			"id":                 d.ID,
			"claim_id":           d.ClaimID,
			"original_file_name": d.OriginalFileName,
			"size_bytes":         d.SizeBytes,
			"uploaded_at":        d.UploadedAt.UTC().Format(time.RFC3339),
		})
	}

	out, err := structpb.NewList(items)
	if err != nil {
		return nil, toStatus(err)
	}
	return out, nil
}

func claimFields(c *models.Claim) map[string]any {
	fields := map[string]any{
		"id":            c.ID,
		"lecturer_id":   c.LecturerID,
		"lecturer_name": c.LecturerName,
		"date":          c.Date.Format(time.DateOnly),
		"hours_worked":  c.HoursWorked,
		"hourly_rate":   c.HourlyRate,
		"total":         c.Total(),
		"notes":         c.Notes,
		"status":        c.Status.String(),
		"created_at":    c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if c.VerifiedAt != nil {
		fields["verified_at"] = c.VerifiedAt.UTC().Format(time.RFC3339)
	}
	if c.ApprovedAt != nil {
		fields["approved_at"] = c.ApprovedAt.UTC().Format(time.RFC3339)
	}
	return fields
}

func getClaimHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(documentServiceServer).GetClaim(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetClaimMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(documentServiceServer).GetClaim(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listDocumentsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(documentServiceServer).ListDocuments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListDocumentsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(documentServiceServer).ListDocuments(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
