package api

import (
	"log"
	"net/http"
	"time"

	"storefront-service/internal/domain"
)

// --- Admin Dashboard Handlers ---

func (h *HTTPHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsStore.DashboardStats(r.Context(), time.Now())
	if err != nil {
		log.Printf("ERROR: GetDashboardStats store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Error fetching dashboard stats")
		return
	}

	respondWithData(w, http.StatusOK, stats)
}

func (h *HTTPHandler) GetSalesAnalytics(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	days := domain.ParsePeriod(period)
	if period == "" {
		period = "30d"
	}
	since := time.Now().AddDate(0, 0, -days)

	salesData, err := h.statsStore.SalesData(r.Context(), since)
	if err != nil {
		log.Printf("ERROR: GetSalesAnalytics sales data query failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Error fetching analytics")
		return
	}

	revenueByCategory, err := h.statsStore.RevenueByCategory(r.Context(), since)
	if err != nil {
		log.Printf("ERROR: GetSalesAnalytics category revenue query failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Error fetching analytics")
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"salesData":         salesData,
		"revenueByCategory": revenueByCategory,
		"period":            period,
	})
}

// --- Admin User Handlers ---

func (h *HTTPHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	users, totalCount, err := h.userStore.ListUsers(r.Context(), limit, (page-1)*limit)
	if err != nil {
		log.Printf("ERROR: ListUsers store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Error fetching users")
		return
	}

	respondWithData(w, http.StatusOK, map[string]interface{}{
		"users":      users,
		"pagination": newPagination(page, limit, totalCount),
	})
}
