package validation

import "slices"

// Categories lists the qualification categories a teacher can hold.
var Categories = []string{
	"Teacher",
	"Teacher-Moderator",
	"Teacher-Researcher",
	"Teacher-Expert",
	"Teacher-Master",
}

// Subjects lists the subjects offered in the registration form.
var Subjects = []string{
	"Mathematics",
	"Physics",
	"Chemistry",
	"Biology",
	"Computer Science",
	"English Language",
	"Kazakh Language",
	"Russian Language",
	"History",
	"Geography",
	"Literature",
	"Art",
	"Music",
	"Physical Education",
	"Economics",
	"Social Studies",
}

// Workplaces lists the schools offered in the registration form.
// Other values are accepted; the list only drives form suggestions.
var Workplaces = []string{
	"Nazarbayev Intellectual School of Physics and Mathematics",
	"Nazarbayev Intellectual School of Chemistry and Biology",
	"International School of Astana",
	"Miras International School",
	"Haileybury Almaty",
	"School #1",
	"School #2",
	"School #3",
	"Gymnasium #5",
	"Lyceum #7",
}

// IsCategory reports whether value is one of Categories.
func IsCategory(value string) bool {
	return slices.Contains(Categories, value)
}

// IsSubject reports whether value is one of Subjects.
func IsSubject(value string) bool {
	return slices.Contains(Subjects, value)
}
