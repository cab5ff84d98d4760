package controllers

import (
	"context"
	"net/http"

	"github.com/famiglia/ops-console/api/responses"
	"github.com/famiglia/ops-console/api/validators"
	"github.com/famiglia/ops-console/internal/dashboard"
	"github.com/famiglia/ops-console/pkg/logger"
)

// DashboardService is the read side the console pages need.
type DashboardService interface {
	Overview(ctx context.Context) *dashboard.Overview
	Sales(ctx context.Context) *dashboard.Sales
	Anonymous(ctx context.Context) *dashboard.AnonymousReport
	Users(ctx context.Context) *dashboard.UsersReport
	UserDetail(ctx context.Context, id int64) (*dashboard.UserDetail, error)
	Settings(ctx context.Context) *dashboard.Settings
}

func DashboardOverview(svc DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Overview(r.Context()))
	}
}

func DashboardSales(svc DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Sales(r.Context()))
	}
}

func DashboardAnonymous(svc DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Anonymous(r.Context()))
	}
}

func DashboardUsers(svc DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Users(r.Context()))
	}
}

// DashboardUserDetail answers 400 for a non-numeric id and 404 for an unknown one.
func DashboardUserDetail(svc DashboardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.UserDetail(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func DashboardSettings(svc DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Settings(r.Context()))
	}
}
