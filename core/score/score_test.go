package score_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/testutil"
)

func TestService_SetMark(t *testing.T) {
	svcs := testutil.NewServices()
	ctx := context.Background()
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")

	tests := []struct {
		name      string
		studentID string
		category  string
		mark      int
		want      score.ScoreSet
		wantField string
		notFound  bool
	}{
		{name: "first mark", studentID: ada.ID, category: "section-a", mark: 7, want: score.ScoreSet{"section-a": 7}},
		{name: "zero is a mark", studentID: ada.ID, category: "section-b", mark: 0, want: score.ScoreSet{"section-a": 7, "section-b": 0}},
		{name: "overwrite", studentID: ada.ID, category: "section-a", mark: 10, want: score.ScoreSet{"section-a": 10, "section-b": 0}},
		{name: "above max", studentID: ada.ID, category: "section-a", mark: 11, wantField: "mark"},
		{name: "negative", studentID: ada.ID, category: "section-c", mark: -1, wantField: "mark"},
		{name: "unknown category", studentID: ada.ID, category: "section-z", mark: 1, wantField: "category"},
		{name: "unknown student", studentID: "nobody", category: "section-a", mark: 1, notFound: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svcs.Scores.SetMark(ctx, tt.studentID, tt.category, tt.mark)
			switch {
			case tt.wantField != "":
				var vErr *core.ValidationError
				require.ErrorAs(t, err, &vErr)
				require.Len(t, vErr.Fields, 1)
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
			case tt.notFound:
				assert.Equal(t, student.ErrNotFound, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}

	stored, err := svcs.Scores.Get(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, score.ScoreSet{"section-a": 10, "section-b": 0}, stored)
}

func TestService_ClearMark(t *testing.T) {
	svcs := testutil.NewServices()
	ctx := context.Background()
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")
	testutil.SetMarks(t, svcs.Scores, ada.ID, map[string]int{"section-a": 7, "paper-1-section-a": 30})

	got, err := svcs.Scores.ClearMark(ctx, ada.ID, "section-a")
	require.NoError(t, err)
	assert.Equal(t, score.ScoreSet{"paper-1-section-a": 30}, got)

	// clearing an unset mark is a no-op
	got, err = svcs.Scores.ClearMark(ctx, ada.ID, "section-a")
	require.NoError(t, err)
	assert.Equal(t, score.ScoreSet{"paper-1-section-a": 30}, got)

	_, err = svcs.Scores.ClearMark(ctx, ada.ID, "nope")
	assert.True(t, core.IsValidation(err))
}

func TestService_GetWithoutMarks(t *testing.T) {
	svcs := testutil.NewServices()
	ctx := context.Background()
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")

	got, err := svcs.Scores.Get(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, score.ScoreSet{}, got)

	_, err = svcs.Scores.Get(ctx, "nobody")
	assert.True(t, core.IsNotFound(err))
}

func TestService_MarksFollowCategoryMax(t *testing.T) {
	svcs := testutil.NewServices()
	ctx := context.Background()
	ada := testutil.CreateStudent(t, svcs.Students, "Ada Lovelace", "13A")

	cats, err := svcs.Settings.Categories(ctx)
	require.NoError(t, err)
	for i := range cats {
		if cats[i].ID == "section-a" {
			cats[i].Max = 50
		}
	}
	_, err = svcs.Settings.SetCategories(ctx, cats)
	require.NoError(t, err)

	got, err := svcs.Scores.SetMark(ctx, ada.ID, "section-a", 45)
	require.NoError(t, err)
	assert.Equal(t, 45, got["section-a"])
}

func TestScoreSet_Copy(t *testing.T) {
	orig := score.ScoreSet{"section-a": 1}
	cp := orig.Copy()
	cp["section-a"] = 2
	assert.Equal(t, 1, orig["section-a"])
}
