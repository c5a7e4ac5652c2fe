package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/lyceum/apps/api/echo"
	"github.com/trezcool/lyceum/core"
	"github.com/trezcool/lyceum/core/attendance"
	"github.com/trezcool/lyceum/core/course"
	"github.com/trezcool/lyceum/core/enrollment"
	"github.com/trezcool/lyceum/core/exam"
	"github.com/trezcool/lyceum/core/notification"
	"github.com/trezcool/lyceum/core/otp"
	"github.com/trezcool/lyceum/core/payment"
	"github.com/trezcool/lyceum/core/recording"
	"github.com/trezcool/lyceum/core/schedule"
	"github.com/trezcool/lyceum/core/user"
	appfs "github.com/trezcool/lyceum/fs"
	emailsvc "github.com/trezcool/lyceum/services/email"
	paymentsvc "github.com/trezcool/lyceum/services/payment"
	pushsvc "github.com/trezcool/lyceum/services/push"
	smssvc "github.com/trezcool/lyceum/services/sms"
	inmemdb "github.com/trezcool/lyceum/storage/database/inmem"
	"github.com/trezcool/lyceum/tests"
)

// pushing to this token always fails
const failingDeviceToken = "unregistered-token"

var (
	conf *core.Config

	usrRepo        user.Repository
	courseRepo     course.Repository
	enrollmentRepo enrollment.Repository
	attendanceRepo attendance.Repository
	examRepo       exam.Repository
	otpStore       *inmemdb.OTPStore
	enrollmentSvc  *enrollment.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf = core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(appfs.FS, "templates/email", true /* strict */, logger)
	user.LoadCommonPasswords(appfs.FS, "common-passwords.txt.gz", logger)

	os.Exit(m.Run())
}

// setup returns a Server backed by a fresh in-memory database.
func setup(t *testing.T) *Server {
	t.Helper()
	logger := testutil.NewLogger(conf)
	validate, translator := testutil.NewValidator()

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	courseRepo = inmemdb.NewCourseRepository(db)
	enrollmentRepo = inmemdb.NewEnrollmentRepository(db)
	attendanceRepo = inmemdb.NewAttendanceRepository(db)
	examRepo = inmemdb.NewExamRepository(db)
	otpStore = inmemdb.NewOTPStore()

	// set up services
	emailsvc.ResetSentMessages()
	smssvc.ResetSentMessages()
	pushsvc.ResetSentMessages()
	paymentsvc.ResetCreatedIntents()

	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf, logger), conf)
	notificationSvc := notification.NewService(
		inmemdb.NewNotificationRepository(db), usrSvc, pushsvc.NewConsoleServiceMock(failingDeviceToken), logger,
	)
	courseSvc := course.NewService(courseRepo, notificationSvc, logger)
	enrollmentSvc = enrollment.NewService(enrollmentRepo, courseSvc, usrSvc)

	// set up server
	return NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		OTPSvc:          otp.NewService(otpStore, smssvc.NewConsoleServiceMock(), conf),
		CourseSvc:       courseSvc,
		EnrollmentSvc:   enrollmentSvc,
		PaymentSvc:      payment.NewService(paymentsvc.NewConsoleGatewayMock(), conf),
		AttendanceSvc:   attendance.NewService(attendanceRepo, enrollmentSvc),
		ScheduleSvc:     schedule.NewService(inmemdb.NewScheduleRepository(db), courseSvc, notificationSvc, logger),
		RecordingSvc:    recording.NewService(inmemdb.NewRecordingRepository(db)),
		ExamSvc:         exam.NewService(examRepo, conf),
		NotificationSvc: notificationSvc,
	})
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

// newAuthRequest sends the token in the access_token cookie, like browsers do.
func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runTests(t *testing.T, app *Server, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
