package grpc

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/docstore"
	"github.com/dmitrijs2005/cmcs/internal/logging"
	"github.com/dmitrijs2005/cmcs/internal/server/auth"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type stubClaims struct {
	claim *models.Claim
	err   error
	got   models.Principal
}

func (s *stubClaims) Get(_ context.Context, p models.Principal, claimID string) (*models.Claim, error) {
	s.got = p
	if s.err != nil {
		return nil, s.err
	}
	if claimID != s.claim.ID {
		return nil, common.ErrorNotFound
	}
	return s.claim, nil
}

type stubDocs struct {
	docs []*models.ClaimDocument
	err  error
}

func (s *stubDocs) List(context.Context, models.Principal, string) ([]*models.ClaimDocument, error) {
	return s.docs, s.err
}

func dialDocuments(t *testing.T, claims ClaimReader, docs DocumentLister) *grpc.ClientConn {
	t.Helper()

	s := NewGRPCServer("", logging.Nop(), "secret", claims, docs)
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		cancel()
		t.Fatalf("NewClient error: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return conn
}

func withToken(t *testing.T, p models.Principal) context.Context {
	t.Helper()
	token, err := auth.GenerateToken(p, []byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
}

func TestGetClaim(t *testing.T) {
	verified := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	claims := &stubClaims{claim: &models.Claim{
		ID:           "c1",
		LecturerName: "Jane",
		Date:         time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		HoursWorked:  2.5,
		HourlyRate:   123.45,
		Status:       models.ClaimVerifiedByCoordinator,
		VerifiedAt:   &verified,
	}}
	conn := dialDocuments(t, claims, &stubDocs{})
	coordinator := models.Principal{UserID: "coord-1", Role: models.RoleCoordinator}

	out := new(structpb.Struct)
	if err := conn.Invoke(withToken(t, coordinator), GetClaimMethod, wrapperspb.String("c1"), out); err != nil {
		t.Fatalf("GetClaim error: %v", err)
	}

	fields := out.GetFields()
	if got := fields["status"].GetStringValue(); got != "VerifiedByCoordinator" {
		t.Fatalf("status = %q", got)
	}
	if got := fields["date"].GetStringValue(); got != "2025-03-03" {
		t.Fatalf("date = %q", got)
	}
	if got := fields["total"].GetNumberValue(); got != 308.63 {
		t.Fatalf("total = %v", got)
	}
	if got := fields["verified_at"].GetStringValue(); got != "2025-03-10T09:00:00Z" {
		t.Fatalf("verified_at = %q", got)
	}
	if _, ok := fields["approved_at"]; ok {
		t.Fatal("approved_at set for a claim that is not approved")
	}
	if claims.got != coordinator {
		t.Fatalf("service saw principal %+v", claims.got)
	}
}

func TestGetClaim_Errors(t *testing.T) {
	lecturer := models.Principal{UserID: "lect-1", Role: models.RoleLecturer}

	tests := []struct {
		name string
		err  error
		id   string
		want codes.Code
	}{
		{"missing", nil, "c404", codes.NotFound},
		{"other lecturer", common.ErrorForbidden, "c1", codes.PermissionDenied},
		{"database down", fmt.Errorf("db error: %w", context.DeadlineExceeded), "c1", codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dialDocuments(t, &stubClaims{claim: &models.Claim{ID: "c1"}, err: tt.err}, &stubDocs{})

			err := conn.Invoke(withToken(t, lecturer), GetClaimMethod, wrapperspb.String(tt.id), new(structpb.Struct))
			if status.Code(err) != tt.want {
				t.Fatalf("code = %v, want %v", status.Code(err), tt.want)
			}
		})
	}
}

func TestListDocuments(t *testing.T) {
	uploaded := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	docs := &stubDocs{docs: []*models.ClaimDocument{
		{ID: "d1", ClaimID: "c1", OriginalFileName: "notes.txt", StoredFileName: "0123456789abcdef0123456789abcdef.bin", SizeBytes: 3, UploadedAt: uploaded},
	}}
	conn := dialDocuments(t, &stubClaims{}, docs)
	hr := models.Principal{UserID: "hr-1", Role: models.RoleHR}

	out := new(structpb.ListValue)
	if err := conn.Invoke(withToken(t, hr), ListDocumentsMethod, wrapperspb.String("c1"), out); err != nil {
		t.Fatalf("ListDocuments error: %v", err)
	}

	if len(out.GetValues()) != 1 {
		t.Fatalf("got %d documents, want 1", len(out.GetValues()))
	}
	fields := out.GetValues()[0].GetStructValue().GetFields()
	if got := fields["original_file_name"].GetStringValue(); got != "notes.txt" {
		t.Fatalf("original_file_name = %q", got)
	}
	if got := fields["size_bytes"].GetNumberValue(); got != 3 {
		t.Fatalf("size_bytes = %v", got)
	}
	if _, ok := fields["stored_file_name"]; ok {
		t.Fatal("stored file name leaked")
	}
}

func TestListDocuments_DecryptAndAuthErrors(t *testing.T) {
	conn := dialDocuments(t, &stubClaims{}, &stubDocs{err: fmt.Errorf("list: %w", docstore.ErrDecrypt)})
	hr := models.Principal{UserID: "hr-1", Role: models.RoleHR}

	err := conn.Invoke(withToken(t, hr), ListDocumentsMethod, wrapperspb.String("c1"), new(structpb.ListValue))
	if status.Code(err) != codes.DataLoss {
		t.Fatalf("code = %v, want DataLoss", status.Code(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = conn.Invoke(ctx, ListDocumentsMethod, wrapperspb.String("c1"), new(structpb.ListValue))
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("no token: code = %v, want Unauthenticated", status.Code(err))
	}
}
