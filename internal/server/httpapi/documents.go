package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/cmcs/internal/docstore"
)

const (
	// FormFileField is the multipart field carrying the upload.
	FormFileField = "file"

	// multipart framing allowance on top of the file itself
	formOverhead = 1 << 20

	// parts above this are spooled to temporary files
	formMemory = 1 << 20
)

func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	claimID := chi.URLParam(r, "claimID")

	r.Body = http.MaxBytesReader(w, r.Body, docstore.MaxFileSize+formOverhead)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file size must be greater than 0 and at most %d MB", docstore.MaxFileSize/(1024*1024)))
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form data")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile(FormFileField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "please select a file to upload")
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(r.Context(), p, claimID, hdr.Filename, hdr.Size, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newDocumentResponse(doc))
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	docs, err := h.documents.List(r.Context(), p, chi.URLParam(r, "claimID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, newDocumentResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) downloadDocument(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	doc, content, err := h.documents.Download(r.Context(), p, chi.URLParam(r, "claimID"), chi.URLParam(r, "docID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.OriginalFileName}))
	w.Header().Set("Content-Length", strconv.Itoa(content.Len()))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		h.logger.Warn(r.Context(), "download interrupted", "document_id", doc.ID, "error", err)
	}
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if err := h.documents.Delete(r.Context(), p, chi.URLParam(r, "claimID"), chi.URLParam(r, "docID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
