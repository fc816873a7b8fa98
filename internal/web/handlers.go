package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/charts"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
	apperrors "github.com/vladimiradmaev/vitalz-dashboard/internal/errors"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/utils"
)

type dashboardQuery struct {
	Email string `validate:"required,email"`
	Date  string `validate:"omitempty,datetime=2006-01-02"`
}

type usersResponse struct {
	Data   interface{} `json:"data"`
	Notice string      `json:"notice,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) users(w http.ResponseWriter, r *http.Request) {
	key := "http:" + uuid.NewString()
	defer s.dashboards.Forget(key)

	snap := s.dashboards.Start(r.Context(), key)
	writeJSON(w, http.StatusOK, usersResponse{Data: snap.Users, Notice: snap.Notice})
}

func (s *Server) dashboardView(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.load(w, r)
	if !ok {
		return
	}
	status := http.StatusOK
	if summary.State == (dashboard.LoadError{}).Name() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, summary)
}

func (s *Server) sleepChart(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.load(w, r)
	if !ok {
		return
	}
	if summary.Sleep == nil {
		writePNG(w, nil, charts.ErrNoData)
		return
	}
	img, err := charts.SleepPie("Sleep stages", summary.Sleep.Stages)
	writePNG(w, img, err)
}

func (s *Server) heartRateChart(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.load(w, r)
	if !ok {
		return
	}
	if summary.HeartRate == nil {
		writePNG(w, nil, charts.ErrNoData)
		return
	}
	img, err := charts.HeartRateLine("Heart rate and HRV", *summary.HeartRate)
	writePNG(w, img, err)
}

// load validates the query and runs one selection in a throwaway session.
// It writes the error response itself and returns false when there is
// nothing to render.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (dashboard.Summary, bool) {
	q := dashboardQuery{
		Email: r.URL.Query().Get("email"),
		Date:  r.URL.Query().Get("date"),
	}
	if err := s.validate.Struct(q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: queryError(err)})
		return dashboard.Summary{}, false
	}

	date := s.defaultDate()
	if q.Date != "" {
		d, err := utils.ParseDate(q.Date, s.location)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return dashboard.Summary{}, false
		}
		date = d
	}

	key := "http:" + uuid.NewString()
	defer s.dashboards.Forget(key)

	ctx := r.Context()
	if snap := s.dashboards.Start(ctx, key); len(snap.Users) == 0 {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: snap.Notice})
		return dashboard.Summary{}, false
	}

	snap, err := s.dashboards.Select(ctx, key, q.Email, date)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
		return dashboard.Summary{}, false
	case err != nil:
		logger.Error("Dashboard load failed", "login_email", q.Email, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return dashboard.Summary{}, false
	}
	return dashboard.Summarize(snap, s.location), true
}

func queryError(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	fe := fieldErrs[0]
	switch fe.Field() {
	case "Email":
		return "email query parameter must be a valid email"
	case "Date":
		return "date query parameter must use the YYYY-MM-DD format"
	}
	return fe.Error()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writePNG(w http.ResponseWriter, img []byte, err error) {
	if errors.Is(err, charts.ErrNoData) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "nothing to chart"})
		return
	}
	if err != nil {
		logger.Error("Chart rendering failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		logger.Debug("Failed to write chart", "error", err)
	}
}
