package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"campustrack/internal/attendance"
	"campustrack/internal/auth"
	"campustrack/internal/config"
	"campustrack/internal/otp"
	"campustrack/internal/roster"
	"campustrack/internal/semester"
	"campustrack/internal/settings"
	"campustrack/internal/timetable"
)

var submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campustrack_attendance_submissions_total",
	Help: "Attendance submissions by outcome.",
}, []string{"outcome"})

// Handler carries every dependency the HTTP layer needs.
type Handler struct {
	cfg        config.App
	roster     *roster.Repository
	ledger     *attendance.Repository
	submission *attendance.Service
	terms      *semester.Repository
	lifecycle  *semester.Lifecycle
	settings   *settings.Repository
	otp        *otp.Service
	timetables *timetable.Store
}

// New wires the handler.
func New(
	cfg config.App,
	rosterRepo *roster.Repository,
	ledger *attendance.Repository,
	submission *attendance.Service,
	terms *semester.Repository,
	lifecycle *semester.Lifecycle,
	settingsRepo *settings.Repository,
	otpSvc *otp.Service,
	timetables *timetable.Store,
) *Handler {
	return &Handler{
		cfg:        cfg,
		roster:     rosterRepo,
		ledger:     ledger,
		submission: submission,
		terms:      terms,
		lifecycle:  lifecycle,
		settings:   settingsRepo,
		otp:        otpSvc,
		timetables: timetables,
	}
}

// submitStatus maps a submission rejection kind to an HTTP status.
func submitStatus(kind string) int {
	switch kind {
	case attendance.KindSlotTaken:
		return http.StatusConflict
	case attendance.KindEmptyRoster:
		return http.StatusNotFound
	case attendance.KindOutOfRange:
		return http.StatusForbidden
	case attendance.KindGeofenceMisconfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// notFoundOr500 maps a missing-row error to 404 and anything else to 500.
func notFoundOr500(c *gin.Context, err error, msg string) {
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	serverError(c, err)
}

func authHash(password string) (string, error) {
	return auth.HashPassword(password)
}
