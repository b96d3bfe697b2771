package httpapi

import (
	"bytes"
	"context"
	"io"

	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/dmitrijs2005/cmcs/internal/server/services"
	"github.com/stretchr/testify/mock"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

type mockClaims struct{ mock.Mock }

func (m *mockClaims) Create(ctx context.Context, p models.Principal, in services.CreateClaimInput) (*models.Claim, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Claim), args.Error(1)
}

func (m *mockClaims) Get(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error) {
	args := m.Called(ctx, p, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Claim), args.Error(1)
}

func (m *mockClaims) ListMine(ctx context.Context, p models.Principal) ([]*models.Claim, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Claim), args.Error(1)
}

func (m *mockClaims) Delete(ctx context.Context, p models.Principal, claimID string) error {
	return m.Called(ctx, p, claimID).Error(0)
}

func (m *mockClaims) ListForReview(ctx context.Context, p models.Principal) ([]*models.Claim, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Claim), args.Error(1)
}

func (m *mockClaims) Verify(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error) {
	return m.review(m.Called(ctx, p, claimID))
}

func (m *mockClaims) Approve(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error) {
	return m.review(m.Called(ctx, p, claimID))
}

func (m *mockClaims) Reject(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error) {
	return m.review(m.Called(ctx, p, claimID))
}

func (m *mockClaims) review(args mock.Arguments) (*models.Claim, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Claim), args.Error(1)
}

type mockDocuments struct{ mock.Mock }

func (m *mockDocuments) Upload(ctx context.Context, p models.Principal, claimID, fileName string, size int64, r io.Reader) (*models.ClaimDocument, error) {
	args := m.Called(ctx, p, claimID, fileName, size, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClaimDocument), args.Error(1)
}

func (m *mockDocuments) Download(ctx context.Context, p models.Principal, claimID, docID string) (*models.ClaimDocument, *bytes.Reader, error) {
	args := m.Called(ctx, p, claimID, docID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.ClaimDocument), args.Get(1).(*bytes.Reader), args.Error(2)
}

func (m *mockDocuments) List(ctx context.Context, p models.Principal, claimID string) ([]*models.ClaimDocument, error) {
	args := m.Called(ctx, p, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ClaimDocument), args.Error(1)
}

func (m *mockDocuments) Delete(ctx context.Context, p models.Principal, claimID, docID string) error {
	return m.Called(ctx, p, claimID, docID).Error(0)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }
