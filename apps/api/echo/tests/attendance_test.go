package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	. "github.com/trezcool/lyceum/apps/api/echo"
	"github.com/trezcool/lyceum/core/attendance"
	"github.com/trezcool/lyceum/core/enrollment"
	"github.com/trezcool/lyceum/core/user"
	"github.com/trezcool/lyceum/tests"
)

func Test_attendanceApi(t *testing.T) {
	app := setup(t)
	student := testutil.CreateUser(t, usrRepo, "Hero", "Student", "hero@test.cd", pwd, user.RoleStudent)
	other := testutil.CreateUser(t, usrRepo, "Other", "Student", "other@test.cd", pwd, user.RoleStudent)
	outsider := testutil.CreateUser(t, usrRepo, "Out", "Sider", "outsider@test.cd", pwd, user.RoleStudent)
	teacher := testutil.CreateUser(t, usrRepo, "The", "Teacher", "teacher@test.cd", pwd, user.RoleTeacher)
	eng := testutil.CreateCourse(t, courseRepo, "English", "ENG-101")
	fr := testutil.CreateCourse(t, courseRepo, "French", "FR-101")
	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)

	for _, usr := range []user.User{student, other} {
		_, err := enrollmentSvc.Enroll(context.Background(), enrollment.NewEnrollment{UserID: usr.ID, CourseID: eng.ID})
		require.NoError(t, err)
	}

	mark := func(courseID, date, studentID string) []byte {
		return marchallObj(t, attendance.Mark{CourseID: courseID, Date: date, StudentID: studentID})
	}
	marked := marchallObj(t, AttendanceResponse{Message: "Attendance marked successfully.", Students: 2})

	tests := []httpTest{
		{name: "staff required", body: mark(eng.ID, "2024-03-04", student.ID), token: studentToken, wantCode: http.StatusForbidden},
		{
			name: "invalid date", body: mark(eng.ID, "04/03/2024", ""), token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "date must be in YYYY-MM-DD format"}),
		},
		{
			name: "no enrollments", body: mark(fr.ID, "2024-03-04", ""), token: teacherToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: attendance.ErrNoEnrollments.Error()}),
		},
		{
			name: "student not enrolled", body: mark(eng.ID, "2024-03-04", outsider.ID), token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"studentId": attendance.ErrNotEnrolled.Error()}),
		},
		{name: "open register", body: mark(eng.ID, "2024-03-04", ""), token: teacherToken, wantData: marked},
		{name: "check in", body: mark(eng.ID, "2024-03-04", student.ID), token: teacherToken, wantData: marked},
		// re-opening the register must not reset the check in
		{name: "open register again", body: mark(eng.ID, "2024-03-04", ""), token: teacherToken, wantData: marked},
		{name: "next day", body: mark(eng.ID, "2024-03-05", other.ID), token: teacherToken, wantData: marked},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/attendance"
	}
	runTests(t, app, tests)

	records, err := attendanceRepo.QueryRecords(context.Background(), attendance.Filter{CourseID: eng.ID})
	require.NoError(t, err)
	status := make(map[string]string, len(records))
	for _, rec := range records {
		status[rec.ID] = rec.Status
	}
	assert.Equal(t, map[string]string{
		attendance.RecordID(eng.ID, "2024-03-04", student.ID): attendance.StatusPresent,
		attendance.RecordID(eng.ID, "2024-03-04", other.ID):   attendance.StatusAbsent,
		attendance.RecordID(eng.ID, "2024-03-05", student.ID): attendance.StatusAbsent,
		attendance.RecordID(eng.ID, "2024-03-05", other.ID):   attendance.StatusPresent,
	}, status)

	t.Run("query", func(t *testing.T) {
		own, err := attendanceRepo.QueryRecords(context.Background(), attendance.Filter{StudentID: student.ID})
		require.NoError(t, err)
		require.Len(t, own, 2)

		runTests(t, app, []httpTest{
			{name: "students see their own", method: http.MethodGet, path: "/v1/attendance", token: studentToken, wantData: marchallObj(t, own)},
			{name: "students cannot see others", method: http.MethodGet, path: "/v1/attendance?studentId=" + other.ID, token: studentToken, wantCode: http.StatusForbidden},
			{name: "staff see the course", method: http.MethodGet, path: "/v1/attendance?courseId=" + eng.ID, token: teacherToken, wantData: marchallObj(t, records)},
			{name: "empty", method: http.MethodGet, path: "/v1/attendance?courseId=" + fr.ID, token: teacherToken, wantData: marchallList(t)},
		})
	})

	t.Run("export", func(t *testing.T) {
		runTests(t, app, []httpTest{
			{name: "staff required", method: http.MethodGet, path: "/v1/attendance/export?courseId=" + eng.ID, token: studentToken, wantCode: http.StatusForbidden},
			{
				name: "course required", method: http.MethodGet, path: "/v1/attendance/export", token: teacherToken, wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, map[string]string{"courseId": "this field is required"}),
			},
		})

		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/export?courseId="+eng.ID, teacherToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=attendance_"+eng.ID)

		f, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows("Attendance")
		require.NoError(t, err)
		require.Len(t, rows, len(records)+1)
		assert.Equal(t, []string{"Date", "Student ID", "Student Name", "Status"}, rows[0])
		for i, rec := range records {
			usr := student
			if rec.StudentID == other.ID {
				usr = other
			}
			assert.Equal(t, []string{rec.Date, rec.StudentID, usr.Name(), rec.Status}, rows[i+1])
		}
	})
}
