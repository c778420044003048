// Package feedback selects written feedback for a graded submission.
package feedback

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks lookups outside the closed band and subject tables.
	ErrConfiguration = errors.New("feedback configuration error")
	// ErrUnknownBand is returned for a band without a template.
	ErrUnknownBand = fmt.Errorf("%w: unknown grade band", ErrConfiguration)
	// ErrUnknownSubject is returned for a subject without resources.
	ErrUnknownSubject = fmt.Errorf("%w: unknown subject", ErrConfiguration)
)

// Resource is a study recommendation.
type Resource struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Feedback is the text and resources for one band and subject.
type Feedback struct {
	Text      string     `json:"feedback_text"`
	Resources []Resource `json:"resources"`
}

var templates = map[string]string{
	"A": "Excellent work! Your solution is well-structured and demonstrates a deep understanding. Keep up the great work!",
	"B": "Good job! Your solution is clear and mostly complete. Focus on refining details for an even better result.",
	"C": "Your solution is acceptable but could use more detail and clarity. Review the key concepts and try to elaborate further.",
	"D": "Your solution shows some understanding but lacks depth and structure. Consider revisiting the topic and practicing similar problems.",
	"E": "Your solution is incomplete and misses key elements. Focus on understanding the basics and building a stronger foundation.",
	"F": "Your solution does not meet the requirements. Start by reviewing the fundamental concepts and seek help if needed.",
}

var resources = map[string]map[string][]Resource{
	"mathematics": {
		"A": {
			{Title: "Advanced Algebra", Link: "https://www.khanacademy.org/math/algebra"},
			{Title: "Challenging Math Problems", Link: "https://brilliant.org/"},
		},
		"B": {
			{Title: "Intermediate Algebra", Link: "https://www.khanacademy.org/math/algebra"},
			{Title: "Practice Problems", Link: "https://www.ixl.com/math/"},
		},
		"C": {
			{Title: "Algebra Basics", Link: "https://www.khanacademy.org/math/algebra-basics"},
			{Title: "Worked Examples", Link: "https://www.mathsisfun.com/algebra/"},
		},
		"D": {
			{Title: "Pre-Algebra", Link: "https://www.khanacademy.org/math/pre-algebra"},
			{Title: "Step-by-Step Practice", Link: "https://www.ixl.com/math/"},
		},
		"E": {
			{Title: "Arithmetic Foundations", Link: "https://www.khanacademy.org/math/arithmetic"},
			{Title: "Math Basics", Link: "https://www.mathsisfun.com/"},
		},
		"F": {
			{Title: "Arithmetic Foundations", Link: "https://www.khanacademy.org/math/arithmetic"},
			{Title: "Early Math Review", Link: "https://www.khanacademy.org/math/early-math"},
		},
	},
	"science": {
		"A": {
			{Title: "Advanced Biology Topics", Link: "https://www.khanacademy.org/science/biology"},
			{Title: "Scientific Research", Link: "https://www.nature.com/"},
		},
		"B": {
			{Title: "High School Biology", Link: "https://www.khanacademy.org/science/high-school-biology"},
			{Title: "Chemistry Practice", Link: "https://www.khanacademy.org/science/chemistry"},
		},
		"C": {
			{Title: "Physics Fundamentals", Link: "https://www.khanacademy.org/science/physics"},
			{Title: "Science Explained", Link: "https://www.sciencenewsforstudents.org/"},
		},
		"D": {
			{Title: "Middle School Biology", Link: "https://www.khanacademy.org/science/ms-biology"},
			{Title: "Middle School Physics", Link: "https://www.khanacademy.org/science/ms-physics"},
		},
		"E": {
			{Title: "Middle School Chemistry", Link: "https://www.khanacademy.org/science/ms-chemistry"},
			{Title: "Science Basics", Link: "https://www.khanacademy.org/science"},
		},
		"F": {
			{Title: "Science Basics", Link: "https://www.khanacademy.org/science"},
			{Title: "Scientific Method", Link: "https://www.khanacademy.org/science/biology/intro-to-biology"},
		},
	},
}

// Subjects lists the subjects with resource tables.
func Subjects() []string {
	return []string{"mathematics", "science"}
}

// Generate returns the feedback template and resources for a band and subject.
func Generate(band, subject string) (Feedback, error) {
	text, ok := templates[strings.ToUpper(strings.TrimSpace(band))]
	if !ok {
		return Feedback{}, fmt.Errorf("%w: %q", ErrUnknownBand, band)
	}

	bySubject, ok := resources[strings.ToLower(strings.TrimSpace(subject))]
	if !ok {
		return Feedback{}, fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
	}

	list := bySubject[strings.ToUpper(strings.TrimSpace(band))]
	out := make([]Resource, len(list))
	copy(out, list)
	return Feedback{Text: text, Resources: out}, nil
}
