package sheet

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/plumline/promoboard/internal/common"
	"github.com/plumline/promoboard/internal/pricing"
)

// StatusClaimed marks a row an operator is currently working on.
const StatusClaimed = "claimed"

// Handler exposes the work-queue endpoints.
type Handler struct {
	Svc *Service
	// PriceColumn is the header whose raw string is parsed into a price for
	// display. Defaults to "price".
	PriceColumn string
}

type pendingRow struct {
	Row
	Price *priceView `json:"price,omitempty"`
}

type priceView struct {
	Minor     int64  `json:"minor"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

// Pending lists rows that still need a post. Sheet price strings carry no
// explicit currency, so they go through the loose parser and its heuristic.
func (h Handler) Pending(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.Pending(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, common.CodeUpstream, "failed to read sheet", nil)
		return
	}
	priceColumn := h.PriceColumn
	if priceColumn == "" {
		priceColumn = "price"
	}
	out := make([]pendingRow, 0, len(rows))
	for _, row := range rows {
		enriched := pendingRow{Row: row}
		if raw := row.Values[priceColumn]; raw != "" {
			amount := pricing.ParseMoney(raw)
			enriched.Price = &priceView{
				Minor:     amount.Minor,
				Currency:  string(amount.Currency),
				Formatted: pricing.Format(amount),
			}
		}
		out = append(out, enriched)
	}
	common.JSONData(w, http.StatusOK, out)
}

// Claim marks a row as being worked on so two operators don't pick it up.
func (h Handler) Claim(w http.ResponseWriter, r *http.Request) {
	rowNumber, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || rowNumber < 2 {
		// Row 1 is the header row.
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid row number", nil)
		return
	}
	if err := h.Svc.Claim(r.Context(), rowNumber); err != nil {
		common.JSONError(w, http.StatusBadGateway, common.CodeUpstream, "failed to update sheet", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"rowNumber": rowNumber, "status": StatusClaimed})
}
