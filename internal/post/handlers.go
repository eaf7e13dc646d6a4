package post

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/plumline/promoboard/internal/common"
)

// Handler exposes the post endpoints.
type Handler struct {
	Svc *Service
}

type recordView struct {
	ID          string  `json:"id"`
	Destination string  `json:"destination"`
	TargetURL   string  `json:"target_url"`
	Subject     string  `json:"subject"`
	SheetRow    int     `json:"sheet_row,omitempty"`
	Status      string  `json:"status"`
	PostURL     *string `json:"post_url,omitempty"`
	FailReason  *string `json:"fail_reason,omitempty"`
	CreatedAt   string  `json:"created_at"`
	PublishedAt *string `json:"published_at,omitempty"`
}

func toView(record Record) recordView {
	view := recordView{
		ID:          record.ID.String(),
		Destination: record.Destination,
		TargetURL:   record.TargetURL,
		Subject:     record.Subject,
		SheetRow:    record.SheetRow,
		Status:      string(record.Status),
		PostURL:     record.PostURL,
		FailReason:  record.FailReason,
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339),
	}
	if record.PublishedAt != nil {
		published := record.PublishedAt.UTC().Format(time.RFC3339)
		view.PublishedAt = &published
	}
	return view
}

// Preview renders a post without storing or publishing it.
func (h Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	preview, err := h.Svc.Preview(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, preview)
}

// Publish stores the post and queues it for delivery.
func (h Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	record, err := h.Svc.Publish(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusAccepted, toView(record))
}

// List returns stored posts, newest first.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	records, total, err := h.Svc.List(r.Context(), q.Get("status"), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]recordView, 0, len(records))
	for _, record := range records {
		views = append(views, toView(record))
	}
	common.JSONPage(w, http.StatusOK, views, total)
}

// Get returns one stored post.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, toView(record))
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "internal error", nil)
}
