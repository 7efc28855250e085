package models

// Subject represents an academic subject.
type Subject struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code"`
}

// Stream is a parallel class within a form, e.g. "4 East".
type Stream struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	FormID string `db:"form_id" json:"formId"`
}

// ExamType labels an exam sitting such as "Mid Term" or "Mock".
type ExamType struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
