// Package httpapi exposes claims and their supporting documents over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/logging"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/dmitrijs2005/cmcs/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type UserService interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

type ClaimService interface {
	Create(ctx context.Context, p models.Principal, in services.CreateClaimInput) (*models.Claim, error)
	Get(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error)
	ListMine(ctx context.Context, p models.Principal) ([]*models.Claim, error)
	Delete(ctx context.Context, p models.Principal, claimID string) error
	ListForReview(ctx context.Context, p models.Principal) ([]*models.Claim, error)
	Verify(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error)
	Approve(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error)
	Reject(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error)
}

type DocumentService interface {
	Upload(ctx context.Context, p models.Principal, claimID, fileName string, size int64, r io.Reader) (*models.ClaimDocument, error)
	Download(ctx context.Context, p models.Principal, claimID, docID string) (*models.ClaimDocument, *bytes.Reader, error)
	List(ctx context.Context, p models.Principal, claimID string) ([]*models.ClaimDocument, error)
	Delete(ctx context.Context, p models.Principal, claimID, docID string) error
}

// Pinger reports database reachability for /healthz. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	users     UserService
	claims    ClaimService
	documents DocumentService
	pinger    Pinger
	jwtSecret []byte
	logger    logging.Logger
}

func NewHandler(us UserService, cs ClaimService, ds DocumentService, pinger Pinger, secretKey string, l logging.Logger) *Handler {
	return &Handler{
		users:     us,
		claims:    cs,
		documents: ds,
		pinger:    pinger,
		jwtSecret: []byte(secretKey),
		logger:    l,
	}
}

// Router builds the chi route tree. Everything under /api/v1 except login
// requires a bearer token.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticator)

			r.Route("/claims", func(r chi.Router) {
				r.Post("/", h.createClaim)
				r.Get("/", h.listClaims)

				r.Route("/{claimID}", func(r chi.Router) {
					r.Get("/", h.getClaim)
					r.Delete("/", h.deleteClaim)
					r.Post("/verify", h.reviewClaim(h.claims.Verify))
					r.Post("/approve", h.reviewClaim(h.claims.Approve))
					r.Post("/reject", h.reviewClaim(h.claims.Reject))

					r.Route("/documents", func(r chi.Router) {
						r.Post("/", h.uploadDocument)
						r.Get("/", h.listDocuments)
						r.Get("/{docID}", h.downloadDocument)
						r.Delete("/{docID}", h.deleteDocument)
					})
				})
			})

			r.Get("/review/claims", h.listReviewClaims)
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.PingContext(ctx); err != nil {
			h.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
