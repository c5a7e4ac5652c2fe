package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lyceum/core/recording"
	"github.com/trezcool/lyceum/core/schedule"
	"github.com/trezcool/lyceum/core/user"
	pushsvc "github.com/trezcool/lyceum/services/push"
	"github.com/trezcool/lyceum/tests"
)

func Test_scheduleApi(t *testing.T) {
	app := setup(t)
	student := testutil.CreateUser(t, usrRepo, "Hero", "Student", "hero@test.cd", pwd, user.RoleStudent, testutil.WithDeviceToken("device-1"))
	teacher := testutil.CreateUser(t, usrRepo, "The", "Teacher", "teacher@test.cd", pwd, user.RoleTeacher)
	eng := testutil.CreateCourse(t, courseRepo, "English", "ENG-101")
	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)

	newSchedule := func(courseID, date, tm string) []byte {
		return marchallObj(t, schedule.NewSchedule{
			Title:      "Grammar",
			Date:       date,
			Time:       tm,
			ClassType:  "online",
			ZoomLink:   "https://zoom.us/j/123",
			CourseID:   courseID,
			CourseName: eng.Name,
		})
	}

	tests := []httpTest{
		{name: "staff required", body: newSchedule(eng.ID, "2024-03-04", "18:00"), token: studentToken, wantCode: http.StatusForbidden},
		{
			name: "invalid time", body: newSchedule(eng.ID, "2024-03-04", "6pm"), token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"time": "time must be in HH:MM format"}),
		},
		{
			name: "unknown course", body: newSchedule("lol", "2024-03-04", "18:00"), token: teacherToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/schedules"
	}
	runTests(t, app, tests)

	req, rec := newAuthRequest(http.MethodPost, "/v1/schedules", teacherToken, newSchedule(eng.ID, "2024-03-04", "18:00"))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var s schedule.Schedule
	unmarshal(t, rec, &s)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, eng.ID, s.CourseID)

	require.Len(t, pushsvc.SentMessages, 1)
	assert.Equal(t, "Class Scheduled: Grammar", pushsvc.SentMessages[0].Title)
	assert.Equal(t, "English on 2024-03-04 at 18:00", pushsvc.SentMessages[0].Body)

	req, rec = newAuthRequest(http.MethodGet, "/v1/schedules", studentToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, s)}, rec)
}

func Test_recordingApi(t *testing.T) {
	app := setup(t)
	student := testutil.CreateUser(t, usrRepo, "Hero", "Student", "hero@test.cd", pwd, user.RoleStudent)
	teacher := testutil.CreateUser(t, usrRepo, "The", "Teacher", "teacher@test.cd", pwd, user.RoleTeacher)
	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)

	save := func(id, name, visibility string) []byte {
		return marchallObj(t, recording.SaveRecording{
			ID:          id,
			Name:        name,
			Description: "Lesson 1",
			Visibility:  visibility,
			VideoURL:    "https://cdn.test.cd/lesson1.mp4",
			UploadDate:  "2024-03-04",
		})
	}

	tests := []httpTest{
		{name: "staff required", body: save("", "Lesson 1", "public"), token: studentToken, wantCode: http.StatusForbidden},
		{
			name: "invalid visibility", body: save("", "Lesson 1", "secret"), token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"visibility": "visibility must be one of [public private]"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/recordings"
	}
	runTests(t, app, tests)

	req, rec := newAuthRequest(http.MethodPost, "/v1/recordings", teacherToken, save("", "Lesson 1", "Public"))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created recording.Recording
	unmarshal(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, recording.VisibilityPublic, created.Visibility)
	assert.False(t, created.BatchID.Valid)

	req, rec = newAuthRequest(http.MethodPost, "/v1/recordings", teacherToken, save(created.ID, "Lesson 1 (edited)", "private"))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated recording.Recording
	unmarshal(t, rec, &updated)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Lesson 1 (edited)", updated.Name)

	req, rec = newAuthRequest(http.MethodGet, "/v1/recordings", studentToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, updated)}, rec)
}
