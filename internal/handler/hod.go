package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campustrack/internal/auth"
	"campustrack/internal/roster"
	"campustrack/internal/timetable"
)

// GeneralDepartment is the cross-branch department that owns the first four
// semesters of every program.
const GeneralDepartment = "General"

const generalMaxSemester = 4

type departmentStats struct {
	Department    string                 `json:"department"`
	StudentCount  int                    `json:"student_count"`
	StaffCount    int                    `json:"staff_count"`
	SemesterGraph []roster.SemesterCount `json:"semester_graph"`
}

// currentHOD resolves the authenticated HOD from the token subject.
func (h *Handler) currentHOD(c *gin.Context) *roster.HOD {
	claims := auth.ClaimsFrom(c)
	hod, err := h.roster.HODByUsername(c.Request.Context(), claims.Subject)
	if err != nil {
		serverError(c, err)
		return nil
	}
	if hod == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "HOD account no longer exists"})
		return nil
	}
	return hod
}

// HODOverview returns the department dashboard: student/staff counts and the
// per-semester distribution.
func (h *Handler) HODOverview(c *gin.Context) {
	hod := h.currentHOD(c)
	if hod == nil {
		return
	}
	stats, err := h.departmentStatsFor(c, *hod)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) departmentStatsFor(c *gin.Context, hod roster.HOD) (departmentStats, error) {
	ctx := c.Request.Context()

	staffCount, err := h.roster.CountStaff(ctx, hod.Department)
	if err != nil {
		return departmentStats{}, err
	}

	students, err := h.departmentStudents(c, hod)
	if err != nil {
		return departmentStats{}, err
	}

	branch, maxSem := hod.Department, 0
	if hod.Department == GeneralDepartment {
		branch, maxSem = "", generalMaxSemester
	}
	graph, err := h.roster.SemesterCounts(ctx, branch, maxSem)
	if err != nil {
		return departmentStats{}, err
	}

	return departmentStats{
		Department:    hod.Department,
		StudentCount:  len(students),
		StaffCount:    staffCount,
		SemesterGraph: graph,
	}, nil
}

// departmentStudents lists the students a HOD may see: their branch, or for
// the General department every student in semesters 1-4.
func (h *Handler) departmentStudents(c *gin.Context, hod roster.HOD) ([]roster.Student, error) {
	ctx := c.Request.Context()
	if hod.Department != GeneralDepartment {
		return h.roster.ListStudents(ctx, roster.StudentFilter{Branch: hod.Department})
	}
	all, err := h.roster.ListStudents(ctx, roster.StudentFilter{})
	if err != nil {
		return nil, err
	}
	var visible []roster.Student
	for _, s := range all {
		if s.Semester != nil && *s.Semester <= generalMaxSemester {
			visible = append(visible, s)
		}
	}
	return visible, nil
}

// HODStudents lists the students visible to the authenticated HOD.
func (h *Handler) HODStudents(c *gin.Context) {
	hod := h.currentHOD(c)
	if hod == nil {
		return
	}
	students, err := h.departmentStudents(c, *hod)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// HODStudentDetails returns one student's history, subject to department
// authorization.
func (h *Handler) HODStudentDetails(c *gin.Context) {
	hod := h.currentHOD(c)
	if hod == nil {
		return
	}
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

	if hod.Department == GeneralDepartment {
		if student.Semester == nil || *student.Semester > generalMaxSemester {
			c.JSON(http.StatusForbidden, gin.H{"error": "General HOD can only view students in semesters 1-4"})
			return
		}
	} else if student.Branch != hod.Department {
		c.JSON(http.StatusForbidden, gin.H{"error": "student is not in your department"})
		return
	}

	h.respondStudentHistory(c, *student)
}

// HODStaff lists the department's staff.
func (h *Handler) HODStaff(c *gin.Context) {
	hod := h.currentHOD(c)
	if hod == nil {
		return
	}
	staff, err := h.roster.ListStaff(c.Request.Context(), hod.Department)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}

// HODStaffDetails returns one staff member with their per-session teaching
// history.
func (h *Handler) HODStaffDetails(c *gin.Context) {
	staff := h.departmentStaff(c)
	if staff == nil {
		return
	}

	sessions, err := h.ledger.StaffSessions(c.Request.Context(), staff.ID)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff, "history": sessions})
}

// UploadTimetable stores a timetable file for a department staff member.
func (h *Handler) UploadTimetable(c *gin.Context) {
	staff := h.departmentStaff(c)
	if staff == nil {
		return
	}

	file, header, err := c.Request.FormFile("timetable")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timetable file required"})
		return
	}
	defer file.Close()

	filename, err := h.timetables.Save(staff.ID, header.Filename, file)
	if err != nil {
		var badExt timetable.ErrBadExtension
		if errors.As(err, &badExt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": badExt.Error()})
			return
		}
		serverError(c, err)
		return
	}

	if err := h.roster.SetTimetable(c.Request.Context(), staff.ID, &filename); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "timetable uploaded", "filename": filename})
}

// DeleteTimetable removes a staff member's timetable file.
func (h *Handler) DeleteTimetable(c *gin.Context) {
	staff := h.departmentStaff(c)
	if staff == nil {
		return
	}
	if staff.TimetableFile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no timetable found"})
		return
	}

	if err := h.timetables.Remove(*staff.TimetableFile); err != nil {
		serverError(c, err)
		return
	}
	if err := h.roster.SetTimetable(c.Request.Context(), staff.ID, nil); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "timetable deleted"})
}

// departmentStaff loads the :id staff member and enforces that they belong
// to the authenticated HOD's department.
func (h *Handler) departmentStaff(c *gin.Context) *roster.Staff {
	hod := h.currentHOD(c)
	if hod == nil {
		return nil
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil
	}
	staff, err := h.roster.GetStaff(c.Request.Context(), id)
	if err != nil {
		serverError(c, err)
		return nil
	}
	if staff == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "staff member not found"})
		return nil
	}
	if staff.Branch != hod.Department {
		c.JSON(http.StatusForbidden, gin.H{"error": "this staff member is not in your department"})
		return nil
	}
	return staff
}
