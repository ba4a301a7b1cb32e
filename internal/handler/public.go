package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campustrack/internal/roster"
)

// PublicStudentAttendance is the self-check endpoint: a student looks up
// their own history by roll number, no login required.
func (h *Handler) PublicStudentAttendance(c *gin.Context) {
	rollNo := c.Param("roll_no")
	student, err := h.roster.StudentByRoll(c.Request.Context(), rollNo)
	if err != nil {
		serverError(c, err)
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no student found with roll number " + rollNo})
		return
	}
	h.respondStudentHistory(c, *student)
}

// PublicParentAttendance lets a parent look up their ward's history by the
// registered parent phone number.
func (h *Handler) PublicParentAttendance(c *gin.Context) {
	phone := c.Param("phone")
	student, err := h.roster.StudentByParentContact(c.Request.Context(), phone)
	if err != nil {
		serverError(c, err)
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no student record found for this phone number"})
		return
	}
	h.respondStudentHistory(c, *student)
}

// respondStudentHistory writes the common student-history payload: the
// student, their records newest first, and the presence percentage.
func (h *Handler) respondStudentHistory(c *gin.Context, student roster.Student) {
	ctx := c.Request.Context()
	records, err := h.ledger.StudentHistory(ctx, student.ID)
	if err != nil {
		serverError(c, err)
		return
	}
	total, present, err := h.ledger.StudentSummary(ctx, student.ID)
	if err != nil {
		serverError(c, err)
		return
	}
	percentage := 0.0
	if total > 0 {
		percentage = float64(present) / float64(total) * 100
	}

	// Parents and students should not see each other's contact data.
	student.ParentContact = ""

	c.JSON(http.StatusOK, gin.H{
		"student":    student,
		"records":    records,
		"total":      total,
		"present":    present,
		"percentage": percentage,
	})
}
