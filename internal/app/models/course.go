package models

// CourseType defines whether a course is mandatory for a programme
type CourseType string

const (
	CourseTypeCompulsory CourseType = "COMPULSORY"
	CourseTypeElective   CourseType = "ELECTIVE"
)

// Course represents a catalog entry with aggregated review statistics.
// AverageRating and ReviewCount are nil for courses that have never been reviewed.
type Course struct {
	ID            int64      `json:"id" db:"id"`
	Code          string     `json:"code" db:"code"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	Credits       float64    `json:"credits" db:"credits"`
	Type          CourseType `json:"type" db:"type"`
	FacultyID     int64      `json:"facultyId" db:"faculty_id"`
	TeacherID     int64      `json:"teacherId" db:"teacher_id"`
	FacultyName   string     `json:"facultyName" db:"faculty_name"`
	TeacherName   string     `json:"teacherName" db:"teacher_name"`
	AverageRating *float64   `json:"averageRating,omitempty" db:"average_rating"`
	ReviewCount   *int       `json:"reviewCount,omitempty" db:"review_count"`
}

// ScoredCourse pairs a catalog course with the match score and human-readable
// reason produced for one recommendation run. Never persisted.
type ScoredCourse struct {
	Course     *Course
	MatchScore float64
	Reason     string
}

// Rating returns the average rating and whether the course has one.
func (c *Course) Rating() (float64, bool) {
	if c.AverageRating == nil {
		return 0, false
	}
	return *c.AverageRating, true
}

// Reviews returns the review count and whether the course has any.
func (c *Course) Reviews() (int, bool) {
	if c.ReviewCount == nil {
		return 0, false
	}
	return *c.ReviewCount, true
}
