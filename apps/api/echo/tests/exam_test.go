package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lyceum/core/exam"
	"github.com/trezcool/lyceum/core/user"
	"github.com/trezcool/lyceum/tests"
)

func questions(n int) []json.RawMessage {
	qs := make([]json.RawMessage, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, json.RawMessage(fmt.Sprintf(`{"question":"Q%d","options":["a","b","c","d"],"answer":"a"}`, i+1)))
	}
	return qs
}

func Test_examApi(t *testing.T) {
	app := setup(t)
	student := testutil.CreateUser(t, usrRepo, "Hero", "Student", "hero@test.cd", pwd, user.RoleStudent)
	teacher := testutil.CreateUser(t, usrRepo, "The", "Teacher", "teacher@test.cd", pwd, user.RoleTeacher)
	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)

	wrongCount := marchallObj(t, map[string]string{"questions": fmt.Sprintf("exactly %d questions are required", conf.QuestionsPerBank)})

	tests := []httpTest{
		{
			name: "staff required", path: "/v1/exams/banks", token: studentToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, exam.NewQuestionBank{Title: "Bank 1", Questions: questions(conf.QuestionsPerBank)}),
		},
		{
			name: "questions required", path: "/v1/exams/banks", token: teacherToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, map[string]string{"title": "Bank 1"}),
			wantData: marchallObj(t, map[string]string{"questions": "this field is required"}),
		},
		{
			name: "too few questions", path: "/v1/exams/banks", token: teacherToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, exam.NewQuestionBank{Title: "Bank 1", Questions: questions(3)}), wantData: wrongCount,
		},
		{
			name: "too many questions", path: "/v1/exams/audio-banks", token: teacherToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, exam.NewAudioBank{Title: "Audio 1", Type: "listening", Questions: questions(conf.QuestionsPerBank + 1)}), wantData: wrongCount,
		},
		{
			name: "audio type required", path: "/v1/exams/audio-banks", token: teacherToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, exam.NewAudioBank{Title: "Audio 1", Questions: questions(conf.QuestionsPerBank)}),
			wantData: marchallObj(t, map[string]string{"type": "this field is required"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
	}
	runTests(t, app, tests)

	create := func(t *testing.T, path string, body []byte) exam.QuestionBank {
		req, rec := newAuthRequest(http.MethodPost, path, teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var b exam.QuestionBank
		unmarshal(t, rec, &b)
		require.NotEmpty(t, b.ID)
		require.Len(t, b.Questions, conf.QuestionsPerBank)
		return b
	}
	bank := create(t, "/v1/exams/banks", marchallObj(t, exam.NewQuestionBank{Title: "Bank 1", Questions: questions(conf.QuestionsPerBank)}))
	audio := create(t, "/v1/exams/audio-banks", marchallObj(t, exam.NewAudioBank{Title: "Audio 1", Type: "listening", Questions: questions(conf.QuestionsPerBank)}))
	assert.Equal(t, "listening", audio.Type)

	tests = []httpTest{
		{name: "list banks", path: "/v1/exams/banks", token: studentToken, wantData: marchallList(t, bank)},
		{name: "list audio banks", path: "/v1/exams/audio-banks", token: studentToken, wantData: marchallList(t, audio)},
		{name: "get bank", path: "/v1/exams/banks/" + bank.ID, token: studentToken, wantData: marchallObj(t, bank)},
		{name: "get audio bank", path: "/v1/exams/audio-banks/" + audio.ID, token: studentToken, wantData: marchallObj(t, audio)},
		{
			name: "kinds do not mix", path: "/v1/exams/banks/" + audio.ID, token: studentToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: exam.ErrBankNotFound.Error()}),
		},
		{
			name: "unknown audio bank", path: "/v1/exams/audio-banks/lol", token: studentToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: exam.ErrAudioBankNotFound.Error()}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runTests(t, app, tests)

	mock := func(bankID, audioBankID string) []byte {
		return marchallObj(t, exam.NewMockExam{Title: "Mock 1", BankID: bankID, AudioBankID: audioBankID, Visibility: "public"})
	}
	tests = []httpTest{
		{
			name: "unknown bank", body: mock("lol", audio.ID), token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"bankId": exam.ErrBankNotFound.Error()}),
		},
		{
			name: "audio bank used as a bank", body: mock(audio.ID, audio.ID), token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"bankId": exam.ErrBankNotFound.Error()}),
		},
		{
			name: "unknown audio bank", body: mock(bank.ID, "lol"), token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"audioBankId": exam.ErrAudioBankNotFound.Error()}),
		},
		{name: "created", body: mock(bank.ID, audio.ID), token: teacherToken, wantCode: http.StatusCreated},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/exams"
	}
	runTests(t, app, tests)

	req, rec := newAuthRequest(http.MethodGet, "/v1/exams", studentToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var exams []exam.MockExam
	unmarshal(t, rec, &exams)
	require.Len(t, exams, 1)
	assert.Equal(t, bank.ID, exams[0].BankID)
	assert.Equal(t, audio.ID, exams[0].AudioBankID)
}
