package gradebook_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/gradebook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/testutil"
)

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{version: "2.0"},
		{version: "2.7"},
		{version: "2"},
		{version: "1.0", wantErr: true},
		{version: "3.0", wantErr: true},
		{version: "", wantErr: true},
		{version: "v2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := gradebook.CheckVersion(tt.version)
			if tt.wantErr {
				assert.ErrorIs(t, err, gradebook.ErrUnsupportedVersion)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantField string
		wantMsg   string
		wantErr   bool
	}{
		{name: "minimal", data: `{"version":"2.0"}`},
		{name: "with students", data: `{"version":"2.1","students":[{"id":"1","name":"Ada","group":"13A","target_grade":7}]}`},
		{name: "not json", data: `version: 2`, wantErr: true},
		{name: "old version", data: `{"version":"1.4"}`, wantField: "version"},
		{name: "bad scores shape", data: `{"version":"2.0","scores":[1,2,3]}`, wantField: "scores"},
		{name: "bad settings shape", data: `{"version":"2.0","settings":"lol"}`, wantField: "settings"},
		{
			name: "student without id", data: `{"version":"2.0","students":[{"name":"Ada","group":"13A","target_grade":7}]}`,
			wantField: "students", wantMsg: "student 1: id is required",
		},
		{
			name: "blank name", data: `{"version":"2.0","students":[{"id":"1","name":" ","group":"13A","target_grade":7}]}`,
			wantField: "students", wantMsg: "student 1: name is required",
		},
		{
			name: "blank group", data: `{"version":"2.0","students":[{"id":"1","name":"Ada","target_grade":7}]}`,
			wantField: "students", wantMsg: "student 1: group is required",
		},
		{
			name: "target out of range", data: `{"version":"2.0","students":[{"id":"1","name":"Ada","group":"13A","target_grade":42}]}`,
			wantField: "students", wantMsg: "student 1: target grade must be between 1 and 9",
		},
		{
			name: "duplicate ids",
			data: `{"version":"2.0","students":[` +
				`{"id":"x","name":"Ada","group":"13A","target_grade":7},` +
				`{"id":"x","name":"Bob","group":"13A","target_grade":5}]}`,
			wantField: "students", wantMsg: `student 2: duplicate id "x"`,
		},
		{
			name: "negative mark", data: `{"version":"2.0","scores":{"1":{"section-a":-3}}}`,
			wantField: "scores", wantMsg: `student "1": mark for "section-a" cannot be negative`,
		},
		{
			name: "invalid student in saved class",
			data: `{"version":"2.0","classes":[{"name":"Y13","students":[{"id":"","name":"Ada","group":"13A","target_grade":7}]}]}`,
			wantField: "classes", wantMsg: `class "Y13": student 1: id is required`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gradebook.Decode([]byte(tt.data))
			switch {
			case tt.wantField != "":
				var vErr *core.ValidationError
				require.ErrorAs(t, err, &vErr)
				require.NotEmpty(t, vErr.Fields)
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, vErr.Fields[0].Error)
				}
			case tt.wantErr:
				assert.True(t, core.IsValidation(err))
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := testutil.NewServices()
	testutil.FreezeTime(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	ada := testutil.CreateStudent(t, src.Students, "Ada Lovelace", "13A", 8)
	testutil.SetMarks(t, src.Scores, ada.ID, map[string]int{"section-a": 9, "paper-1-section-b": 41})
	_, err := src.Settings.SetCourseworkWeight(ctx, 40)
	require.NoError(t, err)

	doc, err := src.Gradebook.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, gradebook.Version, doc.Version)
	assert.Empty(t, doc.Deadlines, "never written blobs are omitted")

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	decoded, err := gradebook.Decode(data)
	require.NoError(t, err)

	dst := testutil.NewServices()
	testutil.CreateStudent(t, dst.Students, "Someone Else", "12B")

	var notified []string
	dst.Hub.Subscribe("*", func(key string) { notified = append(notified, key) })

	res, err := dst.Gradebook.Import(ctx, decoded)
	require.NoError(t, err)
	assert.Equal(t, []string{core.KeyStudents, core.KeyScores, core.KeySettings}, res.Imported)
	assert.Equal(t, res.Imported, notified)

	students, err := dst.Students.QueryAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []student.Student{ada}, students)

	ss, err := dst.Scores.Get(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, score.ScoreSet{"section-a": 9, "paper-1-section-b": 41}, ss)

	conf, err := dst.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, conf.Weights.Coursework)

	srcPred, err := src.Progress.Predict(ctx, ada.ID)
	require.NoError(t, err)
	dstPred, err := dst.Progress.Predict(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, srcPred, dstPred)
}

func TestService_ImportRejectsBadDocument(t *testing.T) {
	ctx := context.Background()
	svcs := testutil.NewServices()
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")

	_, err := svcs.Gradebook.Import(ctx, gradebook.Document{Version: "9.0", Students: json.RawMessage(`[]`)})
	assert.True(t, core.IsValidation(err))

	_, err = svcs.Gradebook.Import(ctx, gradebook.Document{Version: "2.0", Students: json.RawMessage(`{"bad":true}`)})
	assert.True(t, core.IsValidation(err))

	_, err = svcs.Gradebook.Import(ctx, gradebook.Document{Version: "2.0", Students: json.RawMessage(
		`[{"name":""},{"id":"x","name":"Ada","group":"13A","target_grade":42}]`,
	)})
	assert.True(t, core.IsValidation(err))

	students, err := svcs.Students.QueryAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []student.Student{ada}, students)
}

func TestService_Classes(t *testing.T) {
	ctx := context.Background()
	svcs := testutil.NewServices()
	t0 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	testutil.FreezeTime(t, t0)
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")
	testutil.SetMarks(t, svcs.Scores, ada.ID, map[string]int{"section-a": 6})
	saved, err := svcs.Gradebook.SaveClass(ctx, " Year 13 ")
	require.NoError(t, err)
	assert.Equal(t, gradebook.ClassSummary{Name: "Year 13", SavedAt: t0, StudentCount: 1}, saved)

	// start a new roster and save it as another class
	require.NoError(t, svcs.Students.Delete(ctx, ada.ID))
	testutil.FreezeTime(t, t0.Add(time.Hour))
	bob := testutil.CreateStudent(t, svcs.Students, "Bob Marley", "12C")
	testutil.CreateStudent(t, svcs.Students, "Cleo Patra", "12C")
	_, err = svcs.Gradebook.SaveClass(ctx, "Year 12")
	require.NoError(t, err)

	list, err := svcs.Gradebook.ListClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []gradebook.ClassSummary{
		{Name: "Year 12", SavedAt: t0.Add(time.Hour), StudentCount: 2},
		{Name: "Year 13", SavedAt: t0, StudentCount: 1},
	}, list)

	// loading swaps the roster and scores back
	loaded, err := svcs.Gradebook.LoadClass(ctx, "year 13")
	require.NoError(t, err)
	assert.Equal(t, "Year 13", loaded.Name)

	students, err := svcs.Students.QueryAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []student.Student{ada}, students)
	_, err = svcs.Students.GetByID(ctx, bob.ID)
	assert.True(t, core.IsNotFound(err))

	ss, err := svcs.Scores.Get(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, score.ScoreSet{"section-a": 6}, ss)

	// saving under an existing name replaces it
	_, err = svcs.Gradebook.SaveClass(ctx, "YEAR 12")
	require.NoError(t, err)
	list, err = svcs.Gradebook.ListClasses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].StudentCount)

	require.NoError(t, svcs.Gradebook.DeleteClass(ctx, "year 12"))
	assert.Equal(t, gradebook.ErrClassNotFound, svcs.Gradebook.DeleteClass(ctx, "year 12"))
	_, err = svcs.Gradebook.LoadClass(ctx, "nope")
	assert.True(t, core.IsNotFound(err))

	_, err = svcs.Gradebook.SaveClass(ctx, "  ")
	assert.True(t, core.IsValidation(err))
}
