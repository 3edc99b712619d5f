package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCourse(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"btech", "B.Tech"},
		{"B.Tech", "B.Tech"},
		{"  b tech ", "B.Tech"},
		{"MCA", "MCA"},
		{"msc", "M.Sc"},
		{"Diploma in Welding", "Diploma in Welding"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeCourse(tt.input), "input %q", tt.input)
	}
}

func TestProfileCompletion(t *testing.T) {
	empty := Student{}
	assert.Equal(t, 0, empty.ProfileCompletion())

	full := Student{
		Name:         "Asha Rao",
		Email:        "asha@example.edu",
		EnrollmentNo: "EN2021001",
		Course:       "B.Tech",
		Branch:       "CSE",
		CGPA:         8.4,
		Phone:        "9876543210",
		About:        "Compilers and distributed systems.",
		ResumeURL:    "https://files.example.com/resumes/asha.pdf",
	}
	assert.Equal(t, 100, full.ProfileCompletion())

	partial := Student{
		Name:         "Asha Rao",
		Email:        "asha@example.edu",
		EnrollmentNo: "EN2021001",
	}
	assert.Equal(t, 33, partial.ProfileCompletion())
}
