package handler

import (
	"log/slog"
	"net/http"

	"github.com/segyhp/loan-tracker/pkg/response"

	"github.com/gorilla/mux"
)

// NewRouter wires every endpoint under /api/v1 plus the health checks. CORS is left to
// the caller because preflight requests never match a route.
func NewRouter(loans *LoanHandler, health *HealthHandler, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger))

	// Health check
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/borrowers", loans.ListBorrowers).Methods(http.MethodGet)
	api.HandleFunc("/borrowers", loans.CreateBorrower).Methods(http.MethodPost)
	api.HandleFunc("/borrowers/{borrowerId}", loans.GetBorrower).Methods(http.MethodGet)
	api.HandleFunc("/borrowers/{borrowerId}", loans.UpdateBorrower).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/borrowers/{borrowerId}", loans.DeleteBorrower).Methods(http.MethodDelete)

	api.HandleFunc("/loans", loans.ListLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans", loans.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}", loans.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}", loans.UpdateLoan).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/loans/{loanId}", loans.DeleteLoan).Methods(http.MethodDelete)
	api.HandleFunc("/loans/{loanId}/archive", loans.ArchiveLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/refresh", loans.RefreshStatus).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/outstanding", loans.GetOutstanding).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/schedule", loans.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/metrics", loans.LoanMetrics).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/allocation", loans.PreviewAllocation).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/payments", loans.ListPayments).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/payments", loans.RecordPayment).Methods(http.MethodPost)

	api.HandleFunc("/payments/{paymentId}", loans.UpdatePayment).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/payments/{paymentId}", loans.DeletePayment).Methods(http.MethodDelete)

	api.HandleFunc("/metrics/dashboard", loans.Dashboard).Methods(http.MethodGet)
	api.HandleFunc("/metrics/upcoming", loans.UpcomingDue).Methods(http.MethodGet)
	api.HandleFunc("/metrics/overdue", loans.OverdueLoans).Methods(http.MethodGet)
	api.HandleFunc("/statuses/refresh", loans.RefreshAllStatuses).Methods(http.MethodPost)
	api.HandleFunc("/settings", loans.Settings).Methods(http.MethodGet)

	return router
}
