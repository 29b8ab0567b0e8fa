package models

// Teacher represents a catalog teacher.
type Teacher struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Specialty string `json:"specialty"`
	FacultyID int64  `json:"facultyId"`

	// Relations (populated when needed)
	Faculty *Faculty `json:"faculty,omitempty"`
}
