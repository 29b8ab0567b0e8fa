// Package recommender implements the deterministic rule engine that turns
// accumulated criteria and the course catalog into a ranked shortlist.
// It is pure: no I/O, no randomness, no clock.
package recommender

import (
	"math"
	"sort"
	"strings"

	"github.com/liuwen/courseadvisor/internal/app/models"
)

// MaxResults caps how many courses a single recommendation returns.
const MaxResults = 5

// Score weights. Faculty and teacher matches are additive bonuses on top of
// the four graded components.
const (
	facultyBonus = 20.0
	teacherBonus = 10.0

	keywordWeight   = 25.0
	keywordBaseline = 20.0

	ratingWeight   = 25.0
	ratingBaseline = 10.0

	popularityWeight   = 10.0
	popularityBaseline = 10.0 / 3.0

	difficultyFull     = 10.0
	difficultyPartial  = 20.0 / 3.0
	difficultyBaseline = 20.0 / 3.0
	difficultyLow      = 10.0 / 3.0
)

// Recommend ranks catalog courses against the given criteria and returns at
// most MaxResults of them, best first. Empty criteria (and criteria nothing in
// the catalog satisfies even loosely) fall back to a popularity ranking.
// The input slice is never mutated and results are stable for equal scores,
// catalog order breaking ties.
func Recommend(criteria models.Criteria, catalog []*models.Course) []models.ScoredCourse {
	if len(catalog) == 0 {
		return []models.ScoredCourse{}
	}

	if criteria.IsEmpty() {
		return defaultRecommendations(catalog)
	}

	filtered := hardFilter(criteria, catalog)
	if len(filtered) == 0 {
		filtered = softFilter(criteria, catalog)
	}
	if len(filtered) == 0 {
		return defaultRecommendations(catalog)
	}

	scored := make([]models.ScoredCourse, 0, len(filtered))
	for _, course := range filtered {
		scored = append(scored, models.ScoredCourse{
			Course:     course,
			MatchScore: matchScore(course, criteria),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})

	// A requested faculty or teacher means the user wants exactly that
	// slice of the catalog, so diversity would work against them.
	if criteria.Faculty == "" && criteria.Teacher == "" {
		scored = diversify(scored)
	}

	if len(scored) > MaxResults {
		scored = scored[:MaxResults]
	}
	return scored
}

// hardFilter keeps only courses satisfying every set constraint.
func hardFilter(criteria models.Criteria, catalog []*models.Course) []*models.Course {
	var out []*models.Course
	for _, course := range catalog {
		if criteria.CourseType != "" && course.Type != criteria.CourseType {
			continue
		}
		if criteria.Credits != nil && math.Abs(course.Credits-*criteria.Credits) > 0.5 {
			continue
		}
		if criteria.Faculty != "" && !namesOverlap(course.FacultyName, criteria.Faculty) {
			continue
		}
		if criteria.Teacher != "" && !namesOverlap(course.TeacherName, criteria.Teacher) {
			continue
		}
		out = append(out, course)
	}
	return out
}

// softFilter keeps courses satisfying at least one constraint. Used when the
// hard filter comes back empty.
func softFilter(criteria models.Criteria, catalog []*models.Course) []*models.Course {
	var out []*models.Course
	for _, course := range catalog {
		if softMatch(criteria, course) {
			out = append(out, course)
		}
	}
	return out
}

func softMatch(criteria models.Criteria, course *models.Course) bool {
	if criteria.Faculty != "" && namesOverlap(course.FacultyName, criteria.Faculty) {
		return true
	}
	if criteria.Teacher != "" && namesOverlap(course.TeacherName, criteria.Teacher) {
		return true
	}
	if criteria.CourseType != "" && course.Type == criteria.CourseType {
		return true
	}
	if len(criteria.Keywords) > 0 {
		text := searchText(course)
		for _, kw := range criteria.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// matchScore computes the 0-100 match score for one course.
func matchScore(course *models.Course, criteria models.Criteria) float64 {
	score := 0.0

	if criteria.Faculty != "" && namesOverlap(course.FacultyName, criteria.Faculty) {
		score += facultyBonus
	}
	if criteria.Teacher != "" && namesOverlap(course.TeacherName, criteria.Teacher) {
		score += teacherBonus
	}

	score += keywordScore(course, criteria.Keywords)
	score += ratingScore(course)
	score += popularityScore(course)
	score += difficultyScore(course, criteria.Difficulty)

	return score
}

func keywordScore(course *models.Course, keywords []string) float64 {
	if len(keywords) == 0 {
		return keywordBaseline
	}
	text := searchText(course)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords)) * keywordWeight
}

func ratingScore(course *models.Course) float64 {
	rating, ok := course.Rating()
	if !ok {
		return ratingBaseline
	}
	return rating / 5.0 * ratingWeight
}

// popularityScore grows with the review count on a log scale so heavily
// reviewed courses do not drown out everything else. Counts above 100 are
// treated as 100.
func popularityScore(course *models.Course) float64 {
	count, ok := course.Reviews()
	if !ok || count == 0 {
		return popularityBaseline
	}
	if count > 100 {
		count = 100
	}
	return math.Log10(float64(count)+1) / 2.0 * popularityWeight
}

// difficultyScore uses the average rating as a difficulty proxy: highly rated
// courses tend to be approachable, mid-rated ones more demanding.
func difficultyScore(course *models.Course, difficulty models.Difficulty) float64 {
	rating, ok := course.Rating()
	if difficulty == "" || !ok {
		return difficultyBaseline
	}

	switch difficulty {
	case models.DifficultyEasy:
		switch {
		case rating >= 4.0:
			return difficultyFull
		case rating >= 3.5:
			return difficultyPartial
		default:
			return difficultyLow
		}
	case models.DifficultyHard:
		if rating >= 3.0 && rating <= 4.0 {
			return difficultyFull
		}
		return difficultyPartial
	case models.DifficultyMedium:
		if rating >= 3.5 && rating <= 4.5 {
			return difficultyFull
		}
		return difficultyPartial
	}
	return difficultyBaseline
}

// diversify reorders the scored list so the top picks spread across distinct
// teachers and faculties. The first pass takes courses introducing both a new
// teacher and a new faculty; the second pass fills remaining slots from the
// score order. Lists of three or fewer are returned as is.
func diversify(scored []models.ScoredCourse) []models.ScoredCourse {
	if len(scored) <= 3 {
		return scored
	}

	result := make([]models.ScoredCourse, 0, MaxResults)
	picked := make(map[int64]bool, MaxResults)
	usedTeachers := make(map[string]bool)
	usedFaculties := make(map[string]bool)

	for _, sc := range scored {
		if len(result) >= MaxResults {
			break
		}
		if usedTeachers[sc.Course.TeacherName] || usedFaculties[sc.Course.FacultyName] {
			continue
		}
		result = append(result, sc)
		picked[sc.Course.ID] = true
		usedTeachers[sc.Course.TeacherName] = true
		usedFaculties[sc.Course.FacultyName] = true
	}

	for _, sc := range scored {
		if len(result) >= MaxResults {
			break
		}
		if picked[sc.Course.ID] {
			continue
		}
		result = append(result, sc)
		picked[sc.Course.ID] = true
	}

	return result
}

// defaultRecommendations ranks the whole catalog by rating and popularity.
func defaultRecommendations(catalog []*models.Course) []models.ScoredCourse {
	scored := make([]models.ScoredCourse, 0, len(catalog))
	for _, course := range catalog {
		score := 0.0
		if rating, ok := course.Rating(); ok {
			score += rating / 5.0 * 60.0
		} else {
			score += 30.0
		}
		if count, ok := course.Reviews(); ok && count > 0 {
			if count > 100 {
				count = 100
			}
			score += math.Log10(float64(count)+1) / 2.0 * 40.0
		} else {
			score += 10.0
		}
		scored = append(scored, models.ScoredCourse{Course: course, MatchScore: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})

	if len(scored) > MaxResults {
		scored = scored[:MaxResults]
	}
	return scored
}

// namesOverlap reports whether either name contains the other,
// case-insensitively. Handles both "创新工程学院" vs "创新工程" and
// abbreviations the other way around.
func namesOverlap(courseName, requested string) bool {
	if courseName == "" || requested == "" {
		return false
	}
	a := strings.ToLower(courseName)
	b := strings.ToLower(requested)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// searchText is the lowercase haystack keyword matching runs against.
func searchText(course *models.Course) string {
	return strings.ToLower(course.Name + " " + course.Code + " " + course.Description + " " + course.FacultyName + " " + course.TeacherName)
}
