package recommender

import (
	"fmt"
	"strings"

	"github.com/liuwen/courseadvisor/internal/app/models"
)

// Explain builds the human-readable reason string for one recommended course.
// Clauses appear in a fixed order so the output is deterministic.
func Explain(course *models.Course, criteria models.Criteria) string {
	var reasons []string

	if criteria.Faculty != "" && namesOverlap(course.FacultyName, criteria.Faculty) {
		reasons = append(reasons, fmt.Sprintf("来自%s", course.FacultyName))
	}

	if criteria.Teacher != "" && namesOverlap(course.TeacherName, criteria.Teacher) {
		reasons = append(reasons, fmt.Sprintf("由您指定的%s老师授课", course.TeacherName))
	} else if course.TeacherName != "" {
		reasons = append(reasons, fmt.Sprintf("由%s老师授课", course.TeacherName))
	}

	if rating, ok := course.Rating(); ok && rating >= 4.0 {
		reasons = append(reasons, fmt.Sprintf("评分%.1f分，学生评价优秀", rating))
	}

	if len(criteria.Keywords) > 0 {
		text := strings.ToLower(course.Name + " " + course.Description + " " + course.FacultyName)
		var matched []string
		for _, kw := range criteria.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			reasons = append(reasons, fmt.Sprintf("与您感兴趣的%s相关", strings.Join(matched, "、")))
		}
	}

	if rating, ok := course.Rating(); ok && criteria.Difficulty == models.DifficultyEasy && rating >= 4.0 {
		reasons = append(reasons, "课程难度适中，适合入门")
	}

	if count, ok := course.Reviews(); ok && count > 10 {
		reasons = append(reasons, fmt.Sprintf("已有%d位同学评价", count))
	}

	if len(reasons) == 0 {
		return "符合您的基本要求"
	}
	return strings.Join(reasons, "，")
}

// SuggestNext produces the follow-up hint appended after a recommendation,
// listing the dimensions the user has not constrained yet.
func SuggestNext(criteria models.Criteria) string {
	var suggestions []string

	if criteria.Faculty == "" {
		suggestions = append(suggestions, "感兴趣的学院或专业方向")
	}
	if criteria.CourseType == "" {
		suggestions = append(suggestions, "课程类型（必修/选修）")
	}
	if len(criteria.Keywords) == 0 {
		suggestions = append(suggestions, "感兴趣的领域关键词")
	}
	if criteria.Teacher == "" {
		suggestions = append(suggestions, "偏好的授课教师")
	}

	if len(suggestions) > 0 {
		return fmt.Sprintf("💡 您还可以告诉我%s等信息，我会为您进一步精准筛选！", strings.Join(suggestions, "、"))
	}
	return "如果您还有其他要求，请随时告诉我！"
}
