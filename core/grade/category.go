package grade

// Components
const (
	ComponentCoursework = "coursework"
	ComponentExam       = "exam"
)

// Category is a markable unit: a coursework section or an exam paper section.
type Category struct {
	ID        string `json:"id" validate:"required,notblank"`
	Name      string `json:"name" validate:"required,notblank"`
	Max       int    `json:"max" validate:"gt=0"`
	Component string `json:"component" validate:"component"`
}

// DefaultCategories are NEA sections A-F and the two mock exam papers.
func DefaultCategories() []Category {
	return []Category{
		{ID: "section-a", Name: "Section A: Analysis", Max: 10, Component: ComponentCoursework},
		{ID: "section-b", Name: "Section B: Design", Max: 15, Component: ComponentCoursework},
		{ID: "section-c", Name: "Section C: Development", Max: 30, Component: ComponentCoursework},
		{ID: "section-d", Name: "Section D: Testing", Max: 20, Component: ComponentCoursework},
		{ID: "section-e", Name: "Section E: Evaluation", Max: 15, Component: ComponentCoursework},
		{ID: "section-f", Name: "Section F: Documentation", Max: 10, Component: ComponentCoursework},
		{ID: "paper-1-section-a", Name: "Paper 1 Section A", Max: 40, Component: ComponentExam},
		{ID: "paper-1-section-b", Name: "Paper 1 Section B", Max: 60, Component: ComponentExam},
		{ID: "paper-2-section-a", Name: "Paper 2 Section A", Max: 40, Component: ComponentExam},
		{ID: "paper-2-section-b", Name: "Paper 2 Section B", Max: 60, Component: ComponentExam},
	}
}

// FindCategory returns the category with the given id.
func FindCategory(categories []Category, id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// ComponentMax sums the maxima of every category in component.
func ComponentMax(categories []Category, component string) int {
	var total int
	for _, c := range categories {
		if c.Component == component {
			total += c.Max
		}
	}
	return total
}
