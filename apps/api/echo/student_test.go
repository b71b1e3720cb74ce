package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/logbook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/testutil"
)

func Test_studentApi_create(t *testing.T) {
	svcs, app := setup(t)
	testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")

	tests := []httpTest{
		{
			name: "blank name", body: []byte(`{"name":"  ","group":"13A"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"name":"this field is required"}`),
		},
		{
			name: "invalid target", body: []byte(`{"name":"Alan Turing","group":"13A","target_grade":12}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"target_grade":"grade must be between 1 and 9"}`),
		},
		{
			name: "duplicate in group", body: []byte(`{"name":"ada lovelace","group":"13a"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": student.ErrDuplicate.Error()}),
		},
		{name: "malformed body", body: []byte(`{"name":`), wantCode: http.StatusBadRequest},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/students"
	}
	runHTTPTests(t, app, tests)

	t.Run("created", func(t *testing.T) {
		rec := serve(app, http.MethodPost, "/v1/students", []byte(`{"name":" Ada Lovelace ","group":"13B","notes":"  "}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got student.Student
		decode(t, rec, &got)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Ada Lovelace", got.Name)
		assert.Equal(t, "13B", got.Group)
		assert.Equal(t, student.DefaultTargetGrade, got.TargetGrade)
		assert.Nil(t, got.Notes)

		stored, err := svcs.Students.GetByID(context.Background(), got.ID)
		require.NoError(t, err)
		assert.Equal(t, got.Name, stored.Name)
	})
}

func Test_studentApi_query(t *testing.T) {
	svcs, app := setup(t)
	testutil.FreezeTime(t, time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC))

	bob := testutil.CreateStudent(t, svcs.Students, "Bob Marley", "13B", 5)
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A", 8)
	cleo := testutil.CreateStudent(t, svcs.Students, "Cleo Patra", "13B", 6)

	tests := []httpTest{
		{name: "all, by name", path: "/v1/students", wantData: marchallList(t, ada, bob, cleo)},
		{name: "group", path: "/v1/students?group=13b", wantData: marchallList(t, bob, cleo)},
		{name: "search", path: "/v1/students?search=LOVE", wantData: marchallList(t, ada)},
		{name: "search (unknown)", path: "/v1/students?search=nobody", wantData: marchallList(t)},
		{name: "ordering", path: "/v1/students?ordering=-target_grade", wantData: marchallList(t, ada, cleo, bob)},
		{name: "ordering by group then name", path: "/v1/students?ordering=group,-name", wantData: marchallList(t, ada, cleo, bob)},
		{name: "unknown ordering is ignored", path: "/v1/students?ordering=password", wantData: marchallList(t, ada, bob, cleo)},
		{name: "groups", path: "/v1/students/groups", wantData: []byte(`["13A","13B"]`)},
	}
	runHTTPTests(t, app, tests)
}

func Test_studentApi_detail(t *testing.T) {
	svcs, app := setup(t)
	testutil.FreezeTime(t, time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC))

	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A", 8)
	bob := testutil.CreateStudent(t, svcs.Students, "Bob Marley", "13A", 5)
	notFound := marchallObj(t, httpErr{Error: "student not found"})

	updated := ada
	updated.Group = "13C"
	updated.TargetGrade = 9

	tests := []httpTest{
		{name: "retrieve", path: "/v1/students/" + ada.ID, wantData: marchallObj(t, ada)},
		{name: "retrieve (unknown)", path: "/v1/students/nope", wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "update keeps blank fields", method: http.MethodPut, path: "/v1/students/" + ada.ID,
			body: []byte(`{"group":"13C","target_grade":9}`), wantData: marchallObj(t, updated),
		},
		{
			name: "update to a duplicate", method: http.MethodPut, path: "/v1/students/" + bob.ID,
			body:     []byte(`{"name":"Ada Lovelace","group":"13c"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": student.ErrDuplicate.Error()}),
		},
		{name: "update (unknown)", method: http.MethodPut, path: "/v1/students/nope", body: []byte(`{}`), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "destroy", method: http.MethodDelete, path: "/v1/students/" + bob.ID, wantCode: http.StatusNoContent},
		{name: "destroyed", path: "/v1/students/" + bob.ID, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "destroy (unknown)", method: http.MethodDelete, path: "/v1/students/nope", wantCode: http.StatusNotFound, wantData: notFound},
	}
	runHTTPTests(t, app, tests)
}

func Test_studentApi_destroyMultiple(t *testing.T) {
	svcs, app := setup(t)
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")
	bob := testutil.CreateStudent(t, svcs.Students, "Bob Marley", "13A")
	cleo := testutil.CreateStudent(t, svcs.Students, "Cleo Patra", "13A")
	testutil.SetMarks(t, svcs.Scores, ada.ID, map[string]int{"section-a": 5})

	rec := serve(app, http.MethodDelete, "/v1/students")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(app, http.MethodDelete, "/v1/students?id="+ada.ID+"&id="+bob.ID)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(app, http.MethodGet, "/v1/students")
	assert.JSONEq(t, string(marchallList(t, cleo)), rec.Body.String())

	rec = serve(app, http.MethodGet, "/v1/scores")
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func Test_studentApi_scores(t *testing.T) {
	svcs, app := setup(t)
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")
	path := "/v1/students/" + ada.ID + "/scores"

	tests := []httpTest{
		{name: "no marks yet", path: path, wantData: []byte(`{}`)},
		{name: "set mark", method: http.MethodPut, path: path + "/section-a", body: []byte(`{"mark":8}`), wantData: []byte(`{"section-a":8}`)},
		{name: "set zero", method: http.MethodPut, path: path + "/section-b", body: []byte(`{"mark":0}`), wantData: []byte(`{"section-a":8,"section-b":0}`)},
		{
			name: "mark over max", method: http.MethodPut, path: path + "/section-a", body: []byte(`{"mark":11}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"mark":"mark must be between 0 and 10"}`),
		},
		{
			name: "negative mark", method: http.MethodPut, path: path + "/section-a", body: []byte(`{"mark":-1}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"mark":"mark must be between 0 and 10"}`),
		},
		{
			name: "missing mark", method: http.MethodPut, path: path + "/section-a", body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"mark":"this field is required"}`),
		},
		{
			name: "unknown category", method: http.MethodPut, path: path + "/nope", body: []byte(`{"mark":1}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"category":"unknown category \"nope\""}`),
		},
		{
			name: "unknown student", method: http.MethodPut, path: "/v1/students/nope/scores/section-a", body: []byte(`{"mark":1}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{name: "all scores", path: "/v1/scores", wantData: marchallObj(t, score.Scores{ada.ID: {"section-a": 8, "section-b": 0}})},
		{name: "clear mark", method: http.MethodDelete, path: path + "/section-a", wantData: []byte(`{"section-b":0}`)},
		{name: "after clearing", path: path, wantData: []byte(`{"section-b":0}`)},
	}
	runHTTPTests(t, app, tests)
}

func Test_studentApi_prediction(t *testing.T) {
	svcs, app := setup(t)
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A", 7)
	testutil.SetMarks(t, svcs.Scores, ada.ID, map[string]int{
		"section-a": 10, "section-b": 15, "section-c": 30, "section-d": 5,
		"paper-1-section-a": 40, "paper-1-section-b": 60, "paper-2-section-a": 40,
	})

	rec := serve(app, http.MethodGet, "/v1/students/"+ada.ID+"/prediction")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Student      student.Student  `json:"student"`
		Prediction   grade.Prediction `json:"prediction"`
		TargetStatus string           `json:"target_status"`
	}
	decode(t, rec, &got)
	assert.Equal(t, ada.ID, got.Student.ID)
	assert.Equal(t, 60, got.Prediction.CourseworkPct)
	assert.Equal(t, 70, got.Prediction.ExamPct)
	assert.Equal(t, 65, got.Prediction.OverallPct)
	assert.Equal(t, grade.Grade(6), got.Prediction.OverallGrade)
	assert.Equal(t, grade.StatusBelow, got.TargetStatus)

	rec = serve(app, http.MethodGet, "/v1/students/nope/prediction")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_studentApi_logs(t *testing.T) {
	svcs, app := setup(t)
	testutil.FreezeTime(t, time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC))
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")
	path := "/v1/students/" + ada.ID + "/logs"

	rec := serve(app, http.MethodPost, path, []byte(`{"note":"Wrote the analysis","minutes":45,"date":"2024-03-01T00:00:00Z","category_id":"section-a"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first logbook.Entry
	decode(t, rec, &first)
	assert.Equal(t, ada.ID, first.StudentID)
	assert.Equal(t, 45, first.Minutes)

	rec = serve(app, http.MethodPost, path, []byte(`{"note":"Started testing"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var second logbook.Entry
	decode(t, rec, &second)
	assert.Equal(t, time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), second.Date, "date defaults to now")

	tests := []httpTest{
		{name: "list newest first", path: path, wantData: marchallList(t, second, first)},
		{
			name: "blank note", method: http.MethodPost, path: path, body: []byte(`{"note":" "}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"note":"this field is required"}`),
		},
		{
			name: "unknown student", method: http.MethodPost, path: "/v1/students/nope/logs", body: []byte(`{"note":"x"}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{name: "destroy", method: http.MethodDelete, path: "/v1/logs/" + first.ID, wantCode: http.StatusNoContent},
		{
			name: "destroy (unknown)", method: http.MethodDelete, path: "/v1/logs/" + first.ID,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "log entry not found"}),
		},
		{name: "after destroy", path: path, wantData: marchallList(t, second)},
	}
	runHTTPTests(t, app, tests)
}
