package progress

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

type CategoryStat struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Component   string  `json:"component"`
	Max         int     `json:"max"`
	Recorded    int     `json:"recorded"`     // students with a mark
	AverageMark float64 `json:"average_mark"` // over recorded marks
	Completion  float64 `json:"completion"`   // recorded / student count, 0..1
}

// Summary is the class analytics view.
type Summary struct {
	Group             string         `json:"group,omitempty"`
	StudentCount      int            `json:"student_count"`
	AverageOverallPct float64        `json:"average_overall_pct"`
	GradeDistribution map[string]int `json:"grade_distribution"` // "U".."9"
	TargetStatus      map[string]int `json:"target_status"`      // above/on/below
	Categories        []CategoryStat `json:"categories"`
}

func newSummary(group string) Summary {
	dist := make(map[string]int, 10)
	for g := grade.U; g <= grade.Max; g++ {
		dist[g.String()] = 0
	}
	return Summary{
		Group:             group,
		GradeDistribution: dist,
		TargetStatus:      map[string]int{grade.StatusAbove: 0, grade.StatusOn: 0, grade.StatusBelow: 0},
		Categories:        []CategoryStat{},
	}
}

func (svc *service) Summary(ctx context.Context, group string) (Summary, error) {
	predictions, err := svc.PredictAll(ctx, &student.QueryFilter{Group: group})
	if err != nil {
		return Summary{}, err
	}
	conf, err := svc.settings.Get(ctx)
	if err != nil {
		return Summary{}, errors.Wrap(err, "loading settings")
	}
	return Summarize(group, predictions, conf.Categories), nil
}

// Summarize computes class analytics from predictions.
func Summarize(group string, predictions []StudentPrediction, categories []grade.Category) Summary {
	sum := newSummary(group)
	sum.StudentCount = len(predictions)

	var totalPct int
	for _, sp := range predictions {
		totalPct += sp.Prediction.OverallPct
		sum.GradeDistribution[sp.Prediction.OverallGrade.String()]++
		sum.TargetStatus[sp.TargetStatus]++
	}
	if sum.StudentCount > 0 {
		sum.AverageOverallPct = round1(float64(totalPct) / float64(sum.StudentCount))
	}

	for _, c := range categories {
		stat := CategoryStat{ID: c.ID, Name: c.Name, Component: c.Component, Max: c.Max}
		var total int
		for _, sp := range predictions {
			if mark, ok := sp.Scores[c.ID]; ok {
				stat.Recorded++
				total += mark
			}
		}
		if stat.Recorded > 0 {
			stat.AverageMark = round1(float64(total) / float64(stat.Recorded))
		}
		if sum.StudentCount > 0 {
			stat.Completion = math.Round(float64(stat.Recorded)/float64(sum.StudentCount)*100) / 100
		}
		sum.Categories = append(sum.Categories, stat)
	}
	return sum
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
