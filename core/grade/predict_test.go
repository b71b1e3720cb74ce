package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newInput(scores map[string]int, courseworkWeight int) Input {
	return Input{
		Scores:     scores,
		Categories: DefaultCategories(),
		Weights:    NewWeights(courseworkWeight),
		Boundaries: DefaultBoundaries(),
	}
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name    string
		scores  map[string]int
		cwShare int
		want    Prediction
	}{
		{
			// coursework 60/100, exam 140/200 (70%), 50/50 -> 65% -> grade 6
			name: "worked example",
			scores: map[string]int{
				"section-a": 10, "section-b": 15, "section-c": 30, "section-d": 5,
				"paper-1-section-a": 40, "paper-1-section-b": 60, "paper-2-section-a": 40,
			},
			cwShare: 50,
			want: Prediction{
				CourseworkTotal: 60, CourseworkMax: 100, ExamTotal: 140, ExamMax: 200,
				CourseworkPct: 60, ExamPct: 70, OverallPct: 65,
				CourseworkGrade: 5, ExamGrade: 6, OverallGrade: 6,
			},
		},
		{
			name:    "no marks at all",
			scores:  map[string]int{},
			cwShare: 50,
			want: Prediction{
				CourseworkMax: 100, ExamMax: 200,
				CourseworkGrade: 1, ExamGrade: 1, OverallGrade: 1, ExamFallback: true,
			},
		},
		{
			name:    "exam falls back to coursework",
			scores:  map[string]int{"section-a": 8, "section-c": 25},
			cwShare: 20,
			want: Prediction{
				CourseworkTotal: 33, CourseworkMax: 100, ExamMax: 200,
				CourseworkPct: 33, ExamPct: 33, OverallPct: 33,
				CourseworkGrade: 2, ExamGrade: 2, OverallGrade: 2, ExamFallback: true,
			},
		},
		{
			name:    "exam only",
			scores:  map[string]int{"paper-1-section-a": 30, "paper-2-section-b": 45},
			cwShare: 50,
			want: Prediction{
				ExamTotal: 75, CourseworkMax: 100, ExamMax: 200,
				CourseworkPct: 0, ExamPct: 38, OverallPct: 19,
				CourseworkGrade: 1, ExamGrade: 3, OverallGrade: 1,
			},
		},
		{
			// 45 * .5 + 50 * .5 = 47.5 -> 48 (rounded before the lookup)
			name: "overall rounds half up",
			scores: map[string]int{
				"section-a": 5, "section-b": 10, "section-c": 30,
				"paper-1-section-a": 40, "paper-1-section-b": 60,
			},
			cwShare: 50,
			want: Prediction{
				CourseworkTotal: 45, CourseworkMax: 100, ExamTotal: 100, ExamMax: 200,
				CourseworkPct: 45, ExamPct: 50, OverallPct: 48,
				CourseworkGrade: 3, ExamGrade: 4, OverallGrade: 4,
			},
		},
		{
			name:    "out of range marks are clamped",
			scores:  map[string]int{"section-a": 50, "section-b": -4, "paper-1-section-a": 41},
			cwShare: 100,
			want: Prediction{
				CourseworkTotal: 10, CourseworkMax: 100, ExamTotal: 40, ExamMax: 200,
				CourseworkPct: 10, ExamPct: 20, OverallPct: 10,
				CourseworkGrade: 1, ExamGrade: 1, OverallGrade: 1,
			},
		},
		{
			name:    "unknown categories are ignored",
			scores:  map[string]int{"section-z": 99, "section-f": 10},
			cwShare: 0,
			want: Prediction{
				CourseworkTotal: 10, CourseworkMax: 100, ExamMax: 200,
				CourseworkPct: 10, ExamPct: 10, OverallPct: 10,
				CourseworkGrade: 1, ExamGrade: 1, OverallGrade: 1, ExamFallback: true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Predict(newInput(tt.scores, tt.cwShare)))
		})
	}
}

func TestPredict_IsPure(t *testing.T) {
	in := newInput(map[string]int{"section-a": 7, "paper-1-section-b": 33}, 40)
	first := Predict(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Predict(in))
	}
	assert.Equal(t, map[string]int{"section-a": 7, "paper-1-section-b": 33}, in.Scores)
}

func TestPredict_NoCategories(t *testing.T) {
	p := Predict(Input{Scores: map[string]int{"a": 1}, Weights: DefaultWeights(), Boundaries: DefaultBoundaries()})
	assert.Equal(t, 0, p.OverallPct)
	assert.Equal(t, Grade(1), p.OverallGrade)
}
