package models

import "strings"

// courseAliases maps the course spellings seen in imported records to their
// canonical names. The original data carried both short and long forms.
var courseAliases = map[string]string{
	"btech":  "B.Tech",
	"b.tech": "B.Tech",
	"mtech":  "M.Tech",
	"m.tech": "M.Tech",
	"mca":    "MCA",
	"bca":    "BCA",
	"mba":    "MBA",
	"bsc":    "B.Sc",
	"b.sc":   "B.Sc",
	"msc":    "M.Sc",
	"m.sc":   "M.Sc",
}

// NormalizeCourse returns the canonical spelling of a course name. Unknown
// courses are returned trimmed but otherwise untouched.
func NormalizeCourse(course string) string {
	trimmed := strings.TrimSpace(course)
	key := strings.ToLower(strings.ReplaceAll(trimmed, " ", ""))
	if canonical, ok := courseAliases[key]; ok {
		return canonical
	}
	return trimmed
}

// ProfileCompletion returns the percentage (0-100) of profile fields a student
// has filled in. Dashboards use this to nudge students before recruiters see
// an empty profile.
func (s Student) ProfileCompletion() int {
	fields := []bool{
		s.Name != "",
		s.Email != "",
		s.EnrollmentNo != "",
		s.Course != "",
		s.Branch != "",
		s.CGPA > 0,
		s.Phone != "",
		s.About != "",
		s.ResumeURL != "",
	}

	filled := 0
	for _, present := range fields {
		if present {
			filled++
		}
	}

	return filled * 100 / len(fields)
}
