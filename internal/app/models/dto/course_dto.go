package dto

import (
	"github.com/liuwen/courseadvisor/internal/app/models"
)

// FacultyResponse represents basic faculty information
type FacultyResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// TeacherResponse represents a teacher with faculty context
type TeacherResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Specialty   string `json:"specialty"`
	FacultyName string `json:"facultyName,omitempty"`
}

// CourseResponse represents a catalog course with review statistics
type CourseResponse struct {
	ID            int64    `json:"id"`
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Credits       float64  `json:"credits"`
	Type          string   `json:"type"`
	FacultyName   string   `json:"facultyName"`
	TeacherName   string   `json:"teacherName"`
	AverageRating *float64 `json:"averageRating,omitempty"`
	ReviewCount   *int     `json:"reviewCount,omitempty"`
}

// RecommendedCourseResponse is a course as presented inside a recommendation,
// with the match score and the reason it was picked.
type RecommendedCourseResponse struct {
	CourseResponse
	MatchScore float64 `json:"matchScore"`
	Reason     string  `json:"reason"`
}

// FacultyListResponse represents a list of faculties
type FacultyListResponse struct {
	Faculties []FacultyResponse `json:"faculties"`
}

// TeacherListResponse represents a list of teachers
type TeacherListResponse struct {
	Teachers []TeacherResponse `json:"teachers"`
}

// CourseListResponse represents a list of courses
type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
}

// ToFacultyResponse transforms a models.Faculty to FacultyResponse
func ToFacultyResponse(faculty *models.Faculty) FacultyResponse {
	return FacultyResponse{
		ID:   faculty.ID,
		Name: faculty.Name,
		Code: faculty.Code,
	}
}

// ToTeacherResponse transforms a models.Teacher to TeacherResponse
func ToTeacherResponse(teacher *models.Teacher) TeacherResponse {
	response := TeacherResponse{
		ID:        teacher.ID,
		Name:      teacher.Name,
		Title:     teacher.Title,
		Specialty: teacher.Specialty,
	}
	if teacher.Faculty != nil {
		response.FacultyName = teacher.Faculty.Name
	}
	return response
}

// ToCourseResponse transforms a models.Course to CourseResponse
func ToCourseResponse(course *models.Course) CourseResponse {
	return CourseResponse{
		ID:            course.ID,
		Code:          course.Code,
		Name:          course.Name,
		Description:   course.Description,
		Credits:       course.Credits,
		Type:          string(course.Type),
		FacultyName:   course.FacultyName,
		TeacherName:   course.TeacherName,
		AverageRating: course.AverageRating,
		ReviewCount:   course.ReviewCount,
	}
}

// ToRecommendedCourseResponse transforms a stored recommendation snapshot
func ToRecommendedCourseResponse(rec models.CourseRecommendation) RecommendedCourseResponse {
	return RecommendedCourseResponse{
		CourseResponse: CourseResponse{
			ID:            rec.CourseID,
			Code:          rec.Code,
			Name:          rec.Name,
			Credits:       rec.Credits,
			Type:          rec.Type,
			FacultyName:   rec.FacultyName,
			TeacherName:   rec.TeacherName,
			AverageRating: rec.AverageRating,
			ReviewCount:   rec.ReviewCount,
		},
		MatchScore: rec.MatchScore,
		Reason:     rec.Reason,
	}
}
