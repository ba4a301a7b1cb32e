package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campustrack/internal/attendance"
	"campustrack/internal/auth"
)

// CohortOptions returns the distinct branches and semesters with active
// students, for the marking form's selectors.
func (h *Handler) CohortOptions(c *gin.Context) {
	branches, err := h.roster.DistinctBranches(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	semesters, err := h.roster.DistinctSemesters(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": branches, "semesters": semesters})
}

// CohortRoster pre-checks a cohort-slot and returns the roster to mark. A
// slot already taken is reported here so staff do not fill in a sheet they
// cannot submit; the authoritative check still runs on submit.
func (h *Handler) CohortRoster(c *gin.Context) {
	var req struct {
		Branch   string `json:"branch" binding:"required"`
		Semester int    `json:"semester" binding:"required,min=1"`
		Period   int    `json:"period" binding:"required,min=1"`
		Date     string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.submission.CheckSlot(c.Request.Context(), req.Branch, req.Semester, req.Period, req.Date)
	if err != nil {
		serverError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":    "attendance for this period has already been taken by " + existing.StaffName,
			"taken_by": existing.StaffName,
		})
		return
	}

	students, err := h.roster.ListCohort(c.Request.Context(), req.Branch, req.Semester)
	if err != nil {
		serverError(c, err)
		return
	}
	if len(students) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no students found for the selected criteria"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "date": h.submission.Today()})
}

// SubmitAttendance runs the full submission workflow for the authenticated
// staff member.
func (h *Handler) SubmitAttendance(c *gin.Context) {
	var req struct {
		Branch    string            `json:"branch" binding:"required"`
		Semester  int               `json:"semester" binding:"required,min=1"`
		Period    int               `json:"period" binding:"required,min=1"`
		Subject   string            `json:"subject" binding:"required"`
		Date      string            `json:"date"`
		Marks     []attendance.Mark `json:"marks" binding:"required"`
		Latitude  *float64          `json:"latitude"`
		Longitude *float64          `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := auth.ClaimsFrom(c)
	actor := attendance.Actor{ID: claims.UserID, Name: claims.Name}

	result, err := h.submission.Submit(c.Request.Context(), actor, attendance.Submission{
		Branch:    req.Branch,
		Semester:  req.Semester,
		Period:    req.Period,
		Subject:   req.Subject,
		Date:      req.Date,
		Marks:     req.Marks,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		if se, ok := attendance.AsSubmitError(err); ok {
			submissionsTotal.WithLabelValues(se.Kind).Inc()
			c.JSON(submitStatus(se.Kind), gin.H{"error": se.Detail, "kind": se.Kind, "details": se})
			return
		}
		submissionsTotal.WithLabelValues("error").Inc()
		serverError(c, err)
		return
	}

	submissionsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusCreated, result)
}

// AttendanceHistory returns every record marked on a date.
func (h *Handler) AttendanceHistory(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = h.submission.Today()
	} else if _, err := time.Parse(attendance.DateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY-MM-DD"})
		return
	}

	records, err := h.ledger.HistoryByDate(c.Request.Context(), date)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "records": records})
}
