package controllers

import (
	"net/http"

	"github.com/rakapradana/pustaka-backend/api/responses"
	"github.com/rakapradana/pustaka-backend/internal/plans"
)

type planResponse struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Price        int64  `json:"price"`
	Currency     string `json:"currency"`
	DurationDays int    `json:"duration_days"`
}

// ListPlans serves the static plan catalog.
func ListPlans() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defs := plans.List()
		out := make([]planResponse, 0, len(defs))
		for _, def := range defs {
			out = append(out, planResponse{
				ID:           def.ID,
				DisplayName:  def.DisplayName,
				Price:        def.PriceMinorUnits,
				Currency:     "IDR",
				DurationDays: def.DurationDays,
			})
		}
		responses.WriteSuccess(w, map[string]any{"plans": out})
	}
}
