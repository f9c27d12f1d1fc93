package models

import "strings"

// Roles offered by the role picker.
var Roles = []string{
	"Software Engineer",
	"Frontend Developer",
	"Backend Developer",
	"Full Stack Developer",
	"Machine Learning Engineer",
	"Data Scientist",
	"AI Engineer",
	"DevOps Engineer",
	"Cloud Engineer",
	"Cybersecurity Analyst",
	"QA / Test Engineer",
	"Mobile App Developer",
	"UI/UX Designer",
	"Product Manager",
	"Data Analyst",
	"Blockchain Developer",
	"Game Developer",
	"Network Engineer",
	"Database Administrator",
	"IT Support Engineer",
	"Site Reliability Engineer",
	"Embedded Systems Engineer",
	"Big Data Engineer",
	"Business Analyst",
}

// ExperienceLevels maps the stored value to its label.
var ExperienceLevels = map[string]string{
	"0":   "Fresher",
	"0-1": "0 - 1 years",
	"1-2": "1 - 2 years",
	"2-3": "2 - 3 years",
	"3-5": "3 - 5 years",
	"5+":  "5+ years",
}

// Difficulties maps the stored value to its description.
var Difficulties = map[string]string{
	"easy":   "Basic-level questions",
	"medium": "Moderate difficulty",
	"hard":   "Advanced interview questions",
	"expert": "For senior-level challenge",
}

// IsKnownRole matches case-insensitively and returns the canonical spelling.
func IsKnownRole(role string) (string, bool) {
	for _, r := range Roles {
		if strings.EqualFold(r, strings.TrimSpace(role)) {
			return r, true
		}
	}
	return "", false
}

// SearchRoles filters the catalogue by a case-insensitive substring.
func SearchRoles(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, len(Roles))
	for _, r := range Roles {
		if strings.Contains(strings.ToLower(r), q) {
			out = append(out, r)
		}
	}
	return out
}

// Credentials is a login request.
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
