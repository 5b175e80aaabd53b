package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/tableside/console/internal/board"
	"github.com/tableside/console/internal/service"
	"github.com/tableside/console/internal/workflow"
)

// LoginPath is where unauthenticated operators are sent.
const LoginPath = "/login"

// DashboardPath is the landing view after login.
const DashboardPath = "/dashboard"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// writeServiceError maps controller errors onto responses. A dead session
// sends the operator back to the login view.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var mErr *service.MutationError
	switch {
	case errors.Is(err, service.ErrSessionInvalid):
		redirect(w, r, LoginPath)
	case errors.As(err, &mErr):
		writeError(w, http.StatusBadGateway, mErr.Message)
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConfirmationRequired),
		errors.Is(err, workflow.ErrTransitionNotAllowed):
		writeError(w, http.StatusConflict, err.Error())
	case service.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, board.ErrUnknownBucket),
		errors.Is(err, board.ErrInvalidStatusFilter),
		errors.Is(err, workflow.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logrus.WithError(err).WithField("path", r.URL.Path).Error("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
