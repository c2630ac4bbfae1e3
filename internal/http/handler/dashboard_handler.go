package handler

import (
	"context"
	"errors"
	"net/http"

	"vue-dashboard-api/internal/http/response"
	"vue-dashboard-api/internal/service"
)

type DashboardHandler struct {
	dashSvc *service.DashboardService
}

func NewDashboardHandler(dashSvc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashSvc: dashSvc}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashSvc.Stats(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "failed to load stats", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, stats)
}

func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.dashSvc.Analytics(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "failed to load analytics", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, analytics)
}
