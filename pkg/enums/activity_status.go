package enums

import "fmt"

// ActivityStatus tracks the lifecycle of a fundraising actividad.
type ActivityStatus string

const (
	ActivityStatusPlaneada   ActivityStatus = "planeada"
	ActivityStatusEnCurso    ActivityStatus = "en_curso"
	ActivityStatusFinalizada ActivityStatus = "finalizada"
)

var validActivityStatuses = []ActivityStatus{
	ActivityStatusPlaneada,
	ActivityStatusEnCurso,
	ActivityStatusFinalizada,
}

// String implements fmt.Stringer.
func (s ActivityStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ActivityStatus.
func (s ActivityStatus) IsValid() bool {
	for _, candidate := range validActivityStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseActivityStatus converts raw input into an ActivityStatus.
func ParseActivityStatus(value string) (ActivityStatus, error) {
	for _, candidate := range validActivityStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity status %q", value)
}
