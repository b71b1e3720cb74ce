package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/settings"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/testutil"
)

func Test_settingsApi(t *testing.T) {
	_, app := setup(t)

	view := func(fn func(s *settings.Settings)) []byte {
		s := settings.Default()
		if fn != nil {
			fn(&s)
		}
		return marchallObj(t, settings.NewView(s))
	}

	tests := []httpTest{
		{name: "defaults", path: "/v1/settings", wantData: view(nil)},
		// weights
		{
			name: "coursework weight", method: http.MethodPut, path: "/v1/settings/weights", body: []byte(`{"coursework":30}`),
			wantData: view(func(s *settings.Settings) { s.Weights.SetCoursework(30) }),
		},
		{
			name: "exam weight", method: http.MethodPut, path: "/v1/settings/weights", body: []byte(`{"exam":55}`),
			wantData: view(func(s *settings.Settings) { s.Weights.SetCoursework(45) }),
		},
		{
			name: "weights are clamped", method: http.MethodPut, path: "/v1/settings/weights", body: []byte(`{"exam":150}`),
			wantData: view(func(s *settings.Settings) { s.Weights.SetCoursework(0) }),
		},
		{
			name: "both weights", method: http.MethodPut, path: "/v1/settings/weights", body: []byte(`{"coursework":40,"exam":60}`),
			wantData: view(func(s *settings.Settings) { s.Weights.SetCoursework(40) }),
		},
		{
			name: "weights not adding up", method: http.MethodPut, path: "/v1/settings/weights", body: []byte(`{"coursework":50,"exam":60}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"exam":"coursework and exam must add up to 100"}`),
		},
		{
			name: "no weight", method: http.MethodPut, path: "/v1/settings/weights", body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"coursework":"coursework or exam is required"}`),
		},
		// boundaries
		{
			name: "overall boundary cascades", method: http.MethodPut, path: "/v1/settings/boundaries/overall/4", body: []byte(`{"threshold":80}`),
			wantData: view(func(s *settings.Settings) {
				s.Weights.SetCoursework(40)
				_ = s.Boundaries.Set(grade.TableOverall, 4, 80)
			}),
		},
		{
			name: "exam boundary", method: http.MethodPut, path: "/v1/settings/boundaries/EXAM/9", body: []byte(`{"threshold":170}`),
			wantData: view(func(s *settings.Settings) {
				s.Weights.SetCoursework(40)
				_ = s.Boundaries.Set(grade.TableOverall, 4, 80)
				_ = s.Boundaries.Set(grade.TableExam, 9, 170)
			}),
		},
		{
			name: "grade U", method: http.MethodPut, path: "/v1/settings/boundaries/overall/U", body: []byte(`{"threshold":1}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"grade":"grade must be between 1 and 9"}`),
		},
		{
			name: "grade 10", method: http.MethodPut, path: "/v1/settings/boundaries/overall/10", body: []byte(`{"threshold":1}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"grade":"grade must be between 1 and 9"}`),
		},
		{
			name: "unknown table", method: http.MethodPut, path: "/v1/settings/boundaries/mocks/4", body: []byte(`{"threshold":1}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: `unknown boundary table "mocks"`}),
		},
		{
			name: "negative threshold", method: http.MethodPut, path: "/v1/settings/boundaries/overall/4", body: []byte(`{"threshold":-1}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "missing threshold", method: http.MethodPut, path: "/v1/settings/boundaries/overall/4", body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"threshold":"this field is required"}`),
		},
		{
			name: "reset boundaries", method: http.MethodPost, path: "/v1/settings/boundaries/reset",
			wantData: view(func(s *settings.Settings) { s.Weights.SetCoursework(40) }),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_settingsApi_categories(t *testing.T) {
	svcs, app := setup(t)
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")
	testutil.SetMarks(t, svcs.Scores, ada.ID, map[string]int{"section-a": 5})

	tests := []httpTest{
		{
			name: "bad component", method: http.MethodPut, path: "/v1/settings/categories",
			body:     []byte(`{"categories":[{"id":"cw","name":"Coursework","max":10,"component":"homework"}]}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"component":"component must be coursework or exam"}`),
		},
		{
			name: "duplicate ids", method: http.MethodPut, path: "/v1/settings/categories",
			body: []byte(`{"categories":[` +
				`{"id":"cw","name":"Coursework","max":10,"component":"coursework"},` +
				`{"id":"CW","name":"Again","max":10,"component":"coursework"}]}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"categories":"duplicate category id \"cw\""}`),
		},
		{name: "empty", method: http.MethodPut, path: "/v1/settings/categories", body: []byte(`{"categories":[]}`), wantCode: http.StatusBadRequest},
	}
	runHTTPTests(t, app, tests)

	rec := serve(app, http.MethodPut, "/v1/settings/categories", []byte(`{"categories":[`+
		`{"id":" Project ","name":"Project","max":80,"component":"Coursework"},`+
		`{"id":"mock","name":"Mock exam","max":120,"component":"exam"}]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got settings.View
	decode(t, rec, &got)
	assert.Equal(t, []grade.Category{
		{ID: "project", Name: "Project", Max: 80, Component: grade.ComponentCoursework},
		{ID: "mock", Name: "Mock exam", Max: 120, Component: grade.ComponentExam},
	}, got.Categories)
	assert.Empty(t, got.Warnings)

	// marks against removed categories are kept but no longer count
	rec = serve(app, http.MethodGet, "/v1/students/"+ada.ID+"/scores")
	assert.JSONEq(t, `{"section-a":5}`, rec.Body.String())

	rec = serve(app, http.MethodPut, "/v1/students/"+ada.ID+"/scores/project", []byte(`{"mark":60}`))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
