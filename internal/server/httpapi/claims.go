package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/dmitrijs2005/cmcs/internal/server/services"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Name: user.Name, Role: user.Role})
}

func (h *Handler) createClaim(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var req createClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	claim, err := h.claims.Create(r.Context(), p, services.CreateClaimInput{
		Date:        date,
		HoursWorked: req.HoursWorked,
		Notes:       req.Notes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newClaimResponse(claim))
}

func (h *Handler) listClaims(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	claims, err := h.claims.ListMine(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newClaimResponses(claims))
}

// listReviewClaims lists the claims waiting for the caller's review step.
func (h *Handler) listReviewClaims(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	claims, err := h.claims.ListForReview(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newClaimResponses(claims))
}

type reviewFunc func(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error)

func (h *Handler) reviewClaim(review reviewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFromContext(r.Context())

		claim, err := review(r.Context(), p, chi.URLParam(r, "claimID"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newClaimResponse(claim))
	}
}

func (h *Handler) getClaim(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	claim, err := h.claims.Get(r.Context(), p, chi.URLParam(r, "claimID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newClaimResponse(claim))
}

func (h *Handler) deleteClaim(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if err := h.claims.Delete(r.Context(), p, chi.URLParam(r, "claimID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
