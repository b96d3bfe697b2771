package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/dbx"
	"github.com/dmitrijs2005/cmcs/internal/docstore"
	"github.com/dmitrijs2005/cmcs/internal/server/archive"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/claims"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/documents"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memDB is an in-memory stand-in for the three repositories.
type memDB struct {
	mu     sync.Mutex
	users  map[string]*models.User
	claims map[string]*models.Claim
	docs   map[string]*models.ClaimDocument

	createDocErr error
	listNamesErr error
}

func newMemDB() *memDB {
	return &memDB{
		users:  map[string]*models.User{},
		claims: map[string]*models.Claim{},
		docs:   map[string]*models.ClaimDocument{},
	}
}

type fakeRepoManager struct{ m *memDB }

func (f fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f fakeRepoManager) Users(dbx.DBTX) users.Repository             { return fakeUsers{f.m} }
func (f fakeRepoManager) Claims(dbx.DBTX) claims.Repository           { return fakeClaims{f.m} }
func (f fakeRepoManager) Documents(dbx.DBTX) documents.Repository     { return fakeDocs{f.m} }

type fakeUsers struct{ m *memDB }

func (f fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now()
	c := *u
	f.m.users[u.ID] = &c
	return u, nil
}

func (f fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	u, ok := f.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, u := range f.m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeClaims struct{ m *memDB }

func (f fakeClaims) Create(_ context.Context, c *models.Claim) (*models.Claim, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Status = models.ClaimPending
	c.CreatedAt = time.Now()
	cp := *c
	f.m.claims[c.ID] = &cp
	return c, nil
}

func (f fakeClaims) GetByID(_ context.Context, id string) (*models.Claim, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c, ok := f.m.claims[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeClaims) ListByLecturer(_ context.Context, lecturerID string) ([]*models.Claim, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []*models.Claim
	for _, c := range f.m.claims {
		if c.LecturerID == lecturerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeClaims) ListByStatus(_ context.Context, status models.ClaimStatus) ([]*models.Claim, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []*models.Claim
	for _, c := range f.m.claims {
		if c.Status == status {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeClaims) UpdateStatus(_ context.Context, c *models.Claim, from models.ClaimStatus) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	stored, ok := f.m.claims[c.ID]
	if !ok || stored.Status != from {
		return common.ErrorNotFound
	}
	stored.Status = c.Status
	stored.VerifiedAt = c.VerifiedAt
	stored.ApprovedAt = c.ApprovedAt
	return nil
}

func (f fakeClaims) Delete(_ context.Context, id string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.claims[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.m.claims, id)
	for docID, d := range f.m.docs {
		if d.ClaimID == id {
			delete(f.m.docs, docID)
		}
	}
	return nil
}

type fakeDocs struct{ m *memDB }

func (f fakeDocs) Create(_ context.Context, d *models.ClaimDocument) (*models.ClaimDocument, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.createDocErr != nil {
		return nil, f.m.createDocErr
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.UploadedAt = time.Now()
	cp := *d
	f.m.docs[d.ID] = &cp
	return d, nil
}

func (f fakeDocs) GetByID(_ context.Context, claimID, docID string) (*models.ClaimDocument, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	d, ok := f.m.docs[docID]
	if !ok || d.ClaimID != claimID {
		return nil, common.ErrorNotFound
	}
	cp := *d
	return &cp, nil
}

func (f fakeDocs) ListByClaim(_ context.Context, claimID string) ([]*models.ClaimDocument, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []*models.ClaimDocument
	for _, d := range f.m.docs {
		if d.ClaimID == claimID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f fakeDocs) Delete(_ context.Context, claimID, docID string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	d, ok := f.m.docs[docID]
	if !ok || d.ClaimID != claimID {
		return common.ErrorNotFound
	}
	delete(f.m.docs, docID)
	return nil
}

func (f fakeDocs) ListStoredNames(context.Context) (map[string]struct{}, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.listNamesErr != nil {
		return nil, f.m.listNamesErr
	}
	out := map[string]struct{}{}
	for _, d := range f.m.docs {
		out[d.StoredFileName] = struct{}{}
	}
	return out, nil
}

// fakeArchive keeps blobs in memory.
type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: map[string][]byte{}}
}

func (a *fakeArchive) Put(_ context.Context, name string, body io.Reader, size int64) error {
	if a.putErr != nil {
		return a.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return io.ErrShortWrite
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[name] = b
	return nil
}

func (a *fakeArchive) Get(_ context.Context, name string) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.objects[name]
	if !ok {
		return nil, archive.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (a *fakeArchive) Delete(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, name)
	a.deleted = append(a.deleted, name)
	return nil
}

// testKey is the all-zero 32-byte key, base64 encoded.
var testKey = base64.StdEncoding.EncodeToString(make([]byte, docstore.KeySize))

func newTestStore(t *testing.T) *docstore.Store {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(testKey)
	require.NoError(t, err)
	s, err := docstore.New(key, filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return s
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var (
	lecturer      = models.Principal{UserID: "lect-1", Role: models.RoleLecturer}
	otherLecturer = models.Principal{UserID: "lect-2", Role: models.RoleLecturer}
	coordinator   = models.Principal{UserID: "coord-1", Role: models.RoleCoordinator}
	manager       = models.Principal{UserID: "mgr-1", Role: models.RoleManager}
	hr            = models.Principal{UserID: "hr-1", Role: models.RoleHR}
)

// seedClaim stores a claim owned by lecturer in the given state.
func seedClaim(m *memDB, status models.ClaimStatus) *models.Claim {
	c := &models.Claim{
		ID:           uuid.NewString(),
		LecturerID:   lecturer.UserID,
		LecturerName: "Jane",
		Date:         time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		HoursWorked:  2.5,
		HourlyRate:   123.45,
		Status:       status,
		CreatedAt:    time.Now(),
	}
	m.claims[c.ID] = c
	return c
}
