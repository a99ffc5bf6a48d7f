// pkg/assess/score.go
package assess

// Status is the outcome of one metric
type Status string

const (
	StatusPass    Status = "pass"
	StatusPartial Status = "partial"
	StatusFail    Status = "fail"
	StatusWarning Status = "warning"
)

// MetricScore is the result of evaluating one rubric item
type MetricScore struct {
	Name           string
	PointsEarned   float64
	PointsPossible float64
	Status         Status
	Details        string
	Issues         []string
}

// Percentage is earned over possible, as a percentage
func (m MetricScore) Percentage() float64 {
	if m.PointsPossible == 0 {
		return 0
	}
	return m.PointsEarned / m.PointsPossible * 100
}

// FAIRScore is the aggregate result of one assessment
type FAIRScore struct {
	Dataset string

	Findable      float64
	Accessible    float64
	Interoperable float64
	Reusable      float64
	Total         float64

	FindableDetails      []MetricScore
	AccessibleDetails    []MetricScore
	InteroperableDetails []MetricScore
	ReusableDetails      []MetricScore
}

// Grade maps the total score onto A-F, inclusive at each lower bound
func (s FAIRScore) Grade() string {
	return GradeFor(s.Total)
}

// GradeFor returns the letter grade for a total score
func GradeFor(total float64) string {
	switch {
	case total >= 90:
		return "A"
	case total >= 80:
		return "B"
	case total >= 70:
		return "C"
	case total >= 60:
		return "D"
	default:
		return "F"
	}
}

// PrincipleScore returns the score of one principle
func (s FAIRScore) PrincipleScore(p Principle) float64 {
	switch p {
	case Findable:
		return s.Findable
	case Accessible:
		return s.Accessible
	case Interoperable:
		return s.Interoperable
	case Reusable:
		return s.Reusable
	}
	return 0
}

// Details returns the metric results of one principle
func (s FAIRScore) Details(p Principle) []MetricScore {
	switch p {
	case Findable:
		return s.FindableDetails
	case Accessible:
		return s.AccessibleDetails
	case Interoperable:
		return s.InteroperableDetails
	case Reusable:
		return s.ReusableDetails
	}
	return nil
}

// principleScore scales the earned rubric points to the principle allocation
func principleScore(p Principle, metrics []MetricScore) float64 {
	possible := PossiblePoints(p)
	if possible == 0 {
		return 0
	}
	var earned float64
	for _, m := range metrics {
		earned += m.PointsEarned
	}
	return earned / possible * p.Allocation()
}
