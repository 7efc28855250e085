package models

// Gender is stored exactly as the roster records it.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Student represents a learner on the school roster.
type Student struct {
	ID              string  `db:"id" json:"id"`
	AdmissionNumber string  `db:"admission_number" json:"admissionNumber"`
	Name            string  `db:"name" json:"name"`
	FormID          string  `db:"form_id" json:"formId"`
	StreamID        *string `db:"stream_id" json:"streamId,omitempty"`
	Gender          Gender  `db:"gender" json:"gender"`
	DateOfBirth     *string `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	ParentContact   *string `db:"parent_contact" json:"parentContact,omitempty"`
}

// InStream reports whether the student belongs to the given stream. An empty
// stream matches every student.
func (s Student) InStream(streamID string) bool {
	if streamID == "" {
		return true
	}
	return s.StreamID != nil && *s.StreamID == streamID
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	FormID    string
	StreamID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
