package access

import "strings"

// Feature is a fine-grained capability identifier governing a teacher's
// access to a specific portal tab or action. Admin UIs that assign features
// to a teacher must use these values verbatim.
type Feature string

const (
	FeatureDashboard      Feature = "dashboard"
	FeatureAttendanceView Feature = "attendance-view"
	FeatureAttendanceMark Feature = "attendance-mark"
	FeatureMarksView      Feature = "marks-view"
	FeatureMarksEntry     Feature = "marks-entry"
	FeatureHomework       Feature = "homework"
	FeatureClasses        Feature = "classes"
	FeatureStudents       Feature = "students"
	FeatureTeachers       Feature = "teachers"
	FeatureLeaves         Feature = "leaves"
	FeatureStudentLeaves  Feature = "student-leaves"
	FeatureCommunication  Feature = "communication"
	FeatureSchool         Feature = "school"
	FeatureCertificates   Feature = "certificates"
	FeatureEvents         Feature = "events"
	FeatureNewsfeed       Feature = "newsfeed"
	FeaturePayments       Feature = "payments"
	FeatureTC             Feature = "tc"
)

var AllFeatures = []Feature{
	FeatureDashboard,
	FeatureAttendanceView,
	FeatureAttendanceMark,
	FeatureMarksView,
	FeatureMarksEntry,
	FeatureHomework,
	FeatureClasses,
	FeatureStudents,
	FeatureTeachers,
	FeatureLeaves,
	FeatureStudentLeaves,
	FeatureCommunication,
	FeatureSchool,
	FeatureCertificates,
	FeatureEvents,
	FeatureNewsfeed,
	FeaturePayments,
	FeatureTC,
}

// tabFeatures maps a (lowercase) portal tab name to the feature governing
// it. Several tabs intentionally alias to the same feature.
var tabFeatures = map[string]Feature{
	"dashboard":       FeatureDashboard,
	"attendance":      FeatureAttendanceView,
	"attendance-view": FeatureAttendanceView,
	"attendance-mark": FeatureAttendanceMark,
	"marks":           FeatureMarksView,
	"marks-view":      FeatureMarksView,
	"marks-entry":     FeatureMarksEntry,
	"homework":        FeatureHomework,
	"classes":         FeatureClasses,
	"students":        FeatureStudents,
	"teachers":        FeatureTeachers,
	"leaves":          FeatureLeaves,
	"student-leaves":  FeatureStudentLeaves,
	"circulars":       FeatureCommunication,
	"settings":        FeatureSchool,
	"certificates":    FeatureCertificates,
	"events":          FeatureEvents,
	"newsfeed":        FeatureNewsfeed,
	"communication":   FeatureCommunication,
	"payments":        FeaturePayments,
	"tc":              FeatureTC,
	"school":          FeatureSchool,
}

func (f Feature) Valid() bool {
	for _, known := range AllFeatures {
		if f == known {
			return true
		}
	}
	return false
}

// NormalizeTab lowercases and trims a raw tab name from the URL.
func NormalizeTab(tab string) string {
	return strings.ToLower(strings.TrimSpace(tab))
}

// ResolveTab maps a raw tab name to the feature governing it. An unmapped
// tab resolves to itself, so ad hoc tabs can still be granted by name.
func ResolveTab(tab string) Feature {
	norm := NormalizeTab(tab)
	if feat, ok := tabFeatures[norm]; ok {
		return feat
	}
	return Feature(norm)
}

// InvalidFeatures returns the entries of `features` that are not known
// feature identifiers.
func InvalidFeatures(features []string) []string {
	var invalid []string
	for _, f := range features {
		if !Feature(f).Valid() {
			invalid = append(invalid, f)
		}
	}
	return invalid
}

// NormalizeFeatures maps historical allow-list entries (raw tab names,
// mixed case) to canonical feature ids. Unknown entries are kept as-is.
// Intended for a one-shot data migration; the matching predicates stay
// tolerant until that migration has run everywhere.
func NormalizeFeatures(features []string) []string {
	if features == nil {
		return nil
	}
	out := make([]string, 0, len(features))
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		norm := string(ResolveTab(f))
		if !seen[norm] {
			seen[norm] = true
			out = append(out, norm)
		}
	}
	return out
}
