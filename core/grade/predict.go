package grade

// Input is everything a prediction depends on.
type Input struct {
	Scores     map[string]int // category id -> raw mark
	Categories []Category
	Weights    Weights
	Boundaries Boundaries
}

// Prediction is the outcome of Predict. Every percentage is a rounded integer.
type Prediction struct {
	CourseworkTotal int   `json:"coursework_total"`
	CourseworkMax   int   `json:"coursework_max"`
	ExamTotal       int   `json:"exam_total"`
	ExamMax         int   `json:"exam_max"`
	CourseworkPct   int   `json:"coursework_pct"`
	ExamPct         int   `json:"exam_pct"`
	OverallPct      int   `json:"overall_pct"`
	CourseworkGrade Grade `json:"coursework_grade"`
	ExamGrade       Grade `json:"exam_grade"`
	OverallGrade    Grade `json:"overall_grade"`
	ExamFallback    bool  `json:"exam_fallback"` // exam % copied from coursework % (no exam marks yet)
}

type componentSum struct {
	total    int
	max      int
	recorded int
}

// Predict blends coursework and exam marks into percentages and grades.
//
// Each stage is rounded to an integer before the next one uses it:
// component %, weighted overall %, then the boundary lookup.
func Predict(in Input) Prediction {
	sums := map[string]*componentSum{
		ComponentCoursework: {},
		ComponentExam:       {},
	}
	for _, c := range in.Categories {
		sum, ok := sums[c.Component]
		if !ok {
			continue
		}
		sum.max += c.Max
		mark, ok := in.Scores[c.ID]
		if !ok {
			continue
		}
		sum.total += clampMark(mark, c.Max)
		sum.recorded++
	}

	cw, ex := sums[ComponentCoursework], sums[ComponentExam]
	p := Prediction{
		CourseworkTotal: cw.total,
		CourseworkMax:   cw.max,
		ExamTotal:       ex.total,
		ExamMax:         ex.max,
	}

	if cw.recorded > 0 {
		p.CourseworkPct = Percent(cw.total, cw.max)
	}
	if ex.recorded > 0 {
		p.ExamPct = Percent(ex.total, ex.max)
	} else {
		p.ExamPct = p.CourseworkPct
		p.ExamFallback = true
	}

	w := in.Weights
	p.OverallPct = Round(float64(p.CourseworkPct)*float64(w.Coursework)/100 + float64(p.ExamPct)*float64(w.Exam)/100)

	p.CourseworkGrade = in.Boundaries.Coursework.FromPercentage(p.CourseworkPct)
	p.ExamGrade = in.Boundaries.Exam.FromPercentage(p.ExamPct)
	p.OverallGrade = in.Boundaries.Overall.FromPercentage(p.OverallPct)
	return p
}

func clampMark(mark, max int) int {
	if mark < 0 {
		return 0
	}
	if mark > max {
		return max
	}
	return mark
}
