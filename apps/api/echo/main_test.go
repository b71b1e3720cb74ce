package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/LALLEN78/NEA-Tracker-2-sub001/apps/api/echo"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/deadline"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/roster"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/storage"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/testutil"
)

func setup(t *testing.T) (*testutil.Services, echoapi.Server) {
	t.Helper()
	svcs := testutil.NewServices()
	return svcs, newServer(svcs)
}

func newServer(svcs *testutil.Services) echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:         svcs.Conf,
		Logger:       svcs.Logger,
		StudentSvc:   svcs.Students,
		ScoreSvc:     svcs.Scores,
		SettingsSvc:  svcs.Settings,
		ProgressSvc:  svcs.Progress,
		DeadlineSvc:  svcs.Deadlines,
		LogbookSvc:   svcs.Logbook,
		GradebookSvc: svcs.Gradebook,
		Importer:     roster.NewImporter(svcs.Students, svcs.Validate, svcs.Logger),
		Reminder:     deadline.NewReminder(svcs.Deadlines, svcs.Mail, svcs.Conf.TeacherEmail),
		Validate:     svcs.Validate,
		Translator:   svcs.Translator,
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
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func serve(app echoapi.Server, method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newRequest(method, path, data...)
	app.ServeHTTP(rec, req)
	return rec
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

// decode unmarshals the response body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

func runHTTPTests(t *testing.T, app echoapi.Server, tests []httpTest) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := serve(app, method, tt.path, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestServer_Home(t *testing.T) {
	_, app := setup(t)
	rec := serve(app, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to NEA Tracker API!", rec.Body.String())

	rec = serve(app, http.MethodGet, "/v1/nothing-here")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestServer_ShutdownOnClosedStorage(t *testing.T) {
	conf := testutil.NewConfig()
	conf.Storage.Engine = core.EngineMemory
	store, err := storage.Open(context.Background(), conf)
	require.NoError(t, err)

	app := newServer(testutil.NewServicesWithStore(store))
	rec := serve(app, http.MethodGet, "/v1/students")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, store.Close())
	rec = serve(app, http.MethodGet, "/v1/students")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())

	select {
	case sig := <-app.ShutdownSignal():
		assert.Equal(t, syscall.SIGTERM, sig)
	default:
		t.Fatal("no shutdown signal")
	}
}
