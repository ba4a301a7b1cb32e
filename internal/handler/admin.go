package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campustrack/internal/roster"
	"campustrack/internal/semester"
	"campustrack/internal/validate"
)

type studentRequest struct {
	Name          string `json:"name" binding:"required"`
	RollNo        string `json:"roll_no"`
	Branch        string `json:"branch" binding:"required"`
	Semester      *int   `json:"semester"`
	ParentContact string `json:"parent_contact" binding:"required"`
}

// CreateStudent registers a new student.
func (h *Handler) CreateStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RollNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roll_no is required"})
		return
	}
	if err := validate.PersonName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Phone(req.ParentContact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	student, err := h.roster.CreateStudent(c.Request.Context(), roster.Student{
		Name:          req.Name,
		RollNo:        req.RollNo,
		Branch:        req.Branch,
		Semester:      req.Semester,
		ParentContact: req.ParentContact,
	})
	if err != nil {
		if errors.Is(err, roster.ErrDuplicateRoll) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// UpdateStudent edits student details. The roll number cannot change.
func (h *Handler) UpdateStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.roster.UpdateStudent(c.Request.Context(), roster.Student{
		ID:            id,
		Name:          req.Name,
		Branch:        req.Branch,
		Semester:      req.Semester,
		ParentContact: req.ParentContact,
	})
	if err != nil {
		notFoundOr500(c, err, "student not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student updated"})
}

// DeleteStudent removes a student and their attendance history.
func (h *Handler) DeleteStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.roster.DeleteStudent(c.Request.Context(), id); err != nil {
		notFoundOr500(c, err, "student not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student and their attendance history deleted"})
}

// ListStudents returns students with optional q/branch/semester filters;
// semester=alumni lists graduated students.
func (h *Handler) ListStudents(c *gin.Context) {
	filter := roster.StudentFilter{
		Query:  c.Query("q"),
		Branch: c.Query("branch"),
	}
	switch sem := c.Query("semester"); sem {
	case "":
	case "alumni", "Alumni":
		filter.Alumni = true
	default:
		n, err := strconv.Atoi(sem)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid semester filter"})
			return
		}
		filter.Semester = &n
	}

	students, err := h.roster.ListStudents(c.Request.Context(), filter)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// StudentDetails returns one student with their attendance history and
// presence percentage.
func (h *Handler) StudentDetails(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	student, err := h.roster.GetStudent(c.Request.Context(), id)
	if err != nil {
		serverError(c, err)
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	h.respondStudentHistory(c, *student)
}

type staffRequest struct {
	Name      string `json:"name" binding:"required"`
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password"`
	Branch    string `json:"branch" binding:"required"`
	ContactNo string `json:"contact_no"`
}

// CreateStaff registers a staff member.
func (h *Handler) CreateStaff(c *gin.Context) {
	var req staffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Username(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Password(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := authHash(req.Password)
	if err != nil {
		serverError(c, err)
		return
	}
	staff, err := h.roster.CreateStaff(c.Request.Context(), roster.Staff{
		Name:      req.Name,
		Username:  req.Username,
		Branch:    req.Branch,
		ContactNo: req.ContactNo,
	}, hash)
	if err != nil {
		if errors.Is(err, roster.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, staff)
}

// UpdateStaff edits staff details; a non-empty password replaces the
// current one.
func (h *Handler) UpdateStaff(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req staffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var hash string
	if req.Password != "" {
		if err := validate.Password(req.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if hash, err = authHash(req.Password); err != nil {
			serverError(c, err)
			return
		}
	}

	err = h.roster.UpdateStaff(c.Request.Context(), roster.Staff{
		ID:        id,
		Name:      req.Name,
		Username:  req.Username,
		Branch:    req.Branch,
		ContactNo: req.ContactNo,
	}, hash)
	if err != nil {
		if errors.Is(err, roster.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		notFoundOr500(c, err, "staff member not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "staff details updated"})
}

// DeleteStaff removes a staff member and the sessions they marked.
func (h *Handler) DeleteStaff(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.roster.DeleteStaff(c.Request.Context(), id); err != nil {
		notFoundOr500(c, err, "staff member not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "staff member and their attendance logs deleted"})
}

// ListStaff returns every staff member.
func (h *Handler) ListStaff(c *gin.Context) {
	staff, err := h.roster.ListStaff(c.Request.Context(), c.Query("branch"))
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}

type hodRequest struct {
	Name       string `json:"name" binding:"required"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password"`
	Department string `json:"department" binding:"required"`
	ContactNo  string `json:"contact_no"`
}

// CreateHOD registers a department head.
func (h *Handler) CreateHOD(c *gin.Context) {
	var req hodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Username(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Password(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := authHash(req.Password)
	if err != nil {
		serverError(c, err)
		return
	}
	hod, err := h.roster.CreateHOD(c.Request.Context(), roster.HOD{
		Name:       req.Name,
		Username:   req.Username,
		Department: req.Department,
		ContactNo:  req.ContactNo,
	}, hash)
	if err != nil {
		if errors.Is(err, roster.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hod)
}

// UpdateHOD edits a department head; a non-empty password replaces the
// current one.
func (h *Handler) UpdateHOD(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req hodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var hash string
	if req.Password != "" {
		if hash, err = authHash(req.Password); err != nil {
			serverError(c, err)
			return
		}
	}

	err = h.roster.UpdateHOD(c.Request.Context(), roster.HOD{
		ID:         id,
		Name:       req.Name,
		Username:   req.Username,
		Department: req.Department,
		ContactNo:  req.ContactNo,
	}, hash)
	if err != nil {
		if errors.Is(err, roster.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		notFoundOr500(c, err, "HOD not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "HOD details updated"})
}

// DeleteHOD removes a department head account.
func (h *Handler) DeleteHOD(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.roster.DeleteHOD(c.Request.Context(), id); err != nil {
		notFoundOr500(c, err, "HOD not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "HOD account deleted"})
}

// ListHODs returns every department head.
func (h *Handler) ListHODs(c *gin.Context) {
	hods, err := h.roster.ListHODs(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hods": hods})
}

// HODDetails returns a department head with their department statistics.
func (h *Handler) HODDetails(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	hod, err := h.roster.GetHOD(c.Request.Context(), id)
	if err != nil {
		serverError(c, err)
		return
	}
	if hod == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "HOD not found"})
		return
	}

	stats, err := h.departmentStatsFor(c, *hod)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hod": hod, "stats": stats})
}

// ListTerms returns all semester descriptors, active cohorts first.
func (h *Handler) ListTerms(c *gin.Context) {
	terms, err := h.terms.ListTerms(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"semesters": terms})
}

// CreateTerm adds a semester descriptor for a cohort.
func (h *Handler) CreateTerm(c *gin.Context) {
	var req struct {
		Branch      string `json:"branch" binding:"required"`
		SemesterNum int    `json:"semester_num" binding:"required,min=1"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	term, err := h.terms.CreateTerm(c.Request.Context(), semester.Term{
		Branch:      req.Branch,
		SemesterNum: req.SemesterNum,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		if errors.Is(err, semester.ErrDuplicateTerm) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, term)
}

// EndTerm closes a semester and promotes or graduates its cohort.
func (h *Handler) EndTerm(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result, err := h.lifecycle.EndSemester(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, semester.ErrTermNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"promoted":  result.Promoted,
		"graduated": result.Graduated,
	})
}

// GetSettings returns the raw settings map.
func (h *Handler) GetSettings(c *gin.Context) {
	values, err := h.settings.GetAll(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": values})
}

// UpdateSettings upserts the provided keys.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings provided"})
		return
	}
	if err := h.settings.Upsert(c.Request.Context(), req); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "settings updated"})
}
