package grade

// Weights are the coursework and exam percentages of the overall grade. They always sum to 100.
type Weights struct {
	Coursework int `json:"coursework"`
	Exam       int `json:"exam"`
}

func DefaultWeights() Weights {
	return NewWeights(50)
}

// NewWeights builds weights from the coursework share.
func NewWeights(coursework int) Weights {
	var w Weights
	w.SetCoursework(coursework)
	return w
}

// SetCoursework sets the coursework weight (clamped to 0-100) and forces exam to the complement.
func (w *Weights) SetCoursework(v int) {
	w.Coursework = clampPercent(v)
	w.Exam = 100 - w.Coursework
}

// SetExam sets the exam weight (clamped to 0-100) and forces coursework to the complement.
func (w *Weights) SetExam(v int) {
	w.Exam = clampPercent(v)
	w.Coursework = 100 - w.Exam
}

// Normalize repairs weights that do not sum to 100, keeping the coursework share.
func (w *Weights) Normalize() {
	w.SetCoursework(w.Coursework)
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
