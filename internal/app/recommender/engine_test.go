package recommender

import (
	"testing"

	"github.com/liuwen/courseadvisor/internal/app/models"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func course(id int64, name string, credits float64, ctype models.CourseType, faculty, teacher string, rating *float64, reviews *int) *models.Course {
	return &models.Course{
		ID:            id,
		Code:          "C" + string(rune('0'+id)),
		Name:          name,
		Credits:       credits,
		Type:          ctype,
		FacultyName:   faculty,
		TeacherName:   teacher,
		AverageRating: rating,
		ReviewCount:   reviews,
	}
}

func testCatalog() []*models.Course {
	return []*models.Course{
		course(1, "人工智能导论", 3, models.CourseTypeElective, "创新工程学院", "陈伟", fptr(4.6), iptr(40)),
		course(2, "高等数学", 4, models.CourseTypeCompulsory, "创新工程学院", "林晓明", fptr(3.8), iptr(120)),
		course(3, "市场营销", 2, models.CourseTypeElective, "商学院", "周梅", fptr(4.2), iptr(15)),
		course(4, "西方艺术史", 3, models.CourseTypeElective, "人文艺术学院", "王艺琳", fptr(4.8), iptr(8)),
		course(5, "酒店管理概论", 3, models.CourseTypeCompulsory, "酒店与旅游管理学院", "刘芳", nil, nil),
		course(6, "数据结构", 3.5, models.CourseTypeCompulsory, "创新工程学院", "陈伟", fptr(4.1), iptr(60)),
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	got := Recommend(models.Criteria{}, nil)
	if len(got) != 0 {
		t.Fatalf("expected no results for empty catalog, got %d", len(got))
	}
}

func TestRecommendEmptyCriteriaDefaultRanking(t *testing.T) {
	catalog := testCatalog()
	got := Recommend(models.Criteria{}, catalog)

	if len(got) == 0 || len(got) > MaxResults {
		t.Fatalf("expected 1..%d results, got %d", MaxResults, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].MatchScore > got[i-1].MatchScore {
			t.Errorf("results not sorted: score[%d]=%.2f > score[%d]=%.2f", i, got[i].MatchScore, i-1, got[i-1].MatchScore)
		}
	}
	// 人工智能导论 has the best rating/popularity blend.
	if got[0].Course.ID != 1 {
		t.Errorf("expected course 1 first in default ranking, got %d", got[0].Course.ID)
	}
}

func TestRecommendHardFilterCourseType(t *testing.T) {
	got := Recommend(models.Criteria{CourseType: models.CourseTypeElective}, testCatalog())
	if len(got) == 0 {
		t.Fatal("expected elective results")
	}
	for _, sc := range got {
		if sc.Course.Type != models.CourseTypeElective {
			t.Errorf("course %d is %s, want ELECTIVE", sc.Course.ID, sc.Course.Type)
		}
	}
}

func TestRecommendCreditsTolerance(t *testing.T) {
	got := Recommend(models.Criteria{Credits: fptr(3)}, testCatalog())
	if len(got) == 0 {
		t.Fatal("expected results for 3 credits")
	}
	for _, sc := range got {
		diff := sc.Course.Credits - 3
		if diff < -0.5 || diff > 0.5 {
			t.Errorf("course %d credits %.1f outside 3±0.5", sc.Course.ID, sc.Course.Credits)
		}
	}
	// 3.5 credits is inside the tolerance.
	found := false
	for _, sc := range got {
		if sc.Course.ID == 6 {
			found = true
		}
	}
	if !found {
		t.Error("expected 3.5-credit course inside the ±0.5 window")
	}
}

func TestRecommendElectiveThreeCredits(t *testing.T) {
	// The well-reviewed 3-credit elective should win over the other electives.
	got := Recommend(models.Criteria{
		CourseType: models.CourseTypeElective,
		Credits:    fptr(3),
	}, testCatalog())

	if len(got) == 0 {
		t.Fatal("expected results")
	}
	if got[0].Course.ID != 1 {
		t.Fatalf("expected course 1 first, got %d", got[0].Course.ID)
	}
	if got[0].MatchScore <= 55 {
		t.Errorf("expected score above 55, got %.2f", got[0].MatchScore)
	}
}

func TestRecommendFacultyHardMatch(t *testing.T) {
	got := Recommend(models.Criteria{Faculty: "商学院"}, testCatalog())
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 business course, got %d", len(got))
	}
	if got[0].Course.FacultyName != "商学院" {
		t.Errorf("got faculty %s", got[0].Course.FacultyName)
	}
	// The faculty bonus must be part of the score.
	if got[0].MatchScore < facultyBonus {
		t.Errorf("score %.2f below faculty bonus", got[0].MatchScore)
	}
}

func TestRecommendSoftFilterKeywordFallback(t *testing.T) {
	// No course is a 9-credit elective, so the hard filter is empty and the
	// keyword clause of the soft filter must take over.
	got := Recommend(models.Criteria{
		Credits:  fptr(9),
		Keywords: []string{"人工智能"},
	}, testCatalog())

	if len(got) == 0 {
		t.Fatal("expected soft-filter results")
	}
	if got[0].Course.ID != 1 {
		t.Errorf("expected the AI course, got %d", got[0].Course.ID)
	}
}

func TestRecommendFallsBackToDefaultWhenNothingMatches(t *testing.T) {
	got := Recommend(models.Criteria{Keywords: []string{"量子引力"}}, testCatalog())
	if len(got) == 0 {
		t.Fatal("expected popularity fallback instead of an empty answer")
	}
}

func TestRecommendDeterministic(t *testing.T) {
	criteria := models.Criteria{CourseType: models.CourseTypeElective, Keywords: []string{"艺术"}}
	first := Recommend(criteria, testCatalog())
	for run := 0; run < 5; run++ {
		again := Recommend(criteria, testCatalog())
		if len(again) != len(first) {
			t.Fatalf("run %d: length changed %d -> %d", run, len(first), len(again))
		}
		for i := range first {
			if again[i].Course.ID != first[i].Course.ID || again[i].MatchScore != first[i].MatchScore {
				t.Fatalf("run %d: result %d changed", run, i)
			}
		}
	}
}

func TestRecommendStableTieBreakByCatalogOrder(t *testing.T) {
	// Two identical courses must keep their catalog order.
	catalog := []*models.Course{
		course(1, "课程甲", 3, models.CourseTypeElective, "商学院", "周梅", fptr(4.0), iptr(20)),
		course(2, "课程乙", 3, models.CourseTypeElective, "商学院", "周梅", fptr(4.0), iptr(20)),
		course(3, "课程丙", 3, models.CourseTypeElective, "商学院", "周梅", fptr(4.0), iptr(20)),
	}
	got := Recommend(models.Criteria{CourseType: models.CourseTypeElective}, catalog)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i, want := range []int64{1, 2, 3} {
		if got[i].Course.ID != want {
			t.Errorf("position %d: got course %d, want %d", i, got[i].Course.ID, want)
		}
	}
}

func TestDiversifyPrefersDistinctTeachersAndFaculties(t *testing.T) {
	// Course 6 shares teacher 陈伟 and faculty 创新工程学院 with course 1, so the
	// first diversity pass must skip it even though it outscores course 5.
	got := Recommend(models.Criteria{Credits: fptr(3)}, testCatalog())
	if len(got) < 4 {
		t.Fatalf("expected at least 4 results, got %d", len(got))
	}

	seenTeacher := map[string]int{}
	seenFaculty := map[string]int{}
	for _, sc := range got[:3] {
		seenTeacher[sc.Course.TeacherName]++
		seenFaculty[sc.Course.FacultyName]++
	}
	for name, n := range seenTeacher {
		if n > 1 {
			t.Errorf("teacher %s appears %d times in the top 3", name, n)
		}
	}
	for name, n := range seenFaculty {
		if n > 1 {
			t.Errorf("faculty %s appears %d times in the top 3", name, n)
		}
	}
}

func TestDiversifySkippedWhenFacultyRequested(t *testing.T) {
	got := Recommend(models.Criteria{Faculty: "创新工程学院"}, testCatalog())
	if len(got) < 2 {
		t.Fatalf("expected several courses from the faculty, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].MatchScore > got[i-1].MatchScore {
			t.Errorf("diversity reordering applied despite faculty request")
		}
	}
}

func TestMatchScoreComponents(t *testing.T) {
	c := course(1, "人工智能导论", 3, models.CourseTypeElective, "创新工程学院", "陈伟", fptr(4.6), iptr(40))

	tests := []struct {
		name     string
		criteria models.Criteria
		want     float64
		tol      float64
	}{
		{
			name:     "no keyword request gives keyword baseline",
			criteria: models.Criteria{CourseType: models.CourseTypeElective},
			// 20 keyword baseline + 23 rating + ~8.06 popularity + 20/3 difficulty baseline
			want: 57.7,
			tol:  0.1,
		},
		{
			name:     "faculty and teacher bonuses are additive",
			criteria: models.Criteria{Faculty: "创新工程学院", Teacher: "陈伟"},
			want:     87.7,
			tol:      0.1,
		},
		{
			name:     "easy difficulty with high rating scores full",
			criteria: models.Criteria{Difficulty: models.DifficultyEasy},
			// difficulty moves from 20/3 to 10
			want: 61.04,
			tol:  0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchScore(c, tt.criteria)
			if got < tt.want-tt.tol || got > tt.want+tt.tol {
				t.Errorf("matchScore = %.3f, want %.3f ± %.1f", got, tt.want, tt.tol)
			}
		})
	}
}

func TestDifficultyScore(t *testing.T) {
	tests := []struct {
		name       string
		rating     *float64
		difficulty models.Difficulty
		want       float64
	}{
		{"unset difficulty", fptr(4.5), "", difficultyBaseline},
		{"no rating", nil, models.DifficultyEasy, difficultyBaseline},
		{"easy high rating", fptr(4.2), models.DifficultyEasy, difficultyFull},
		{"easy mid rating", fptr(3.7), models.DifficultyEasy, difficultyPartial},
		{"easy low rating", fptr(3.0), models.DifficultyEasy, difficultyLow},
		{"hard in band", fptr(3.5), models.DifficultyHard, difficultyFull},
		{"hard above band", fptr(4.5), models.DifficultyHard, difficultyPartial},
		{"medium in band", fptr(4.0), models.DifficultyMedium, difficultyFull},
		{"medium outside band", fptr(4.8), models.DifficultyMedium, difficultyPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := course(1, "x", 3, models.CourseTypeElective, "f", "t", tt.rating, nil)
			if got := difficultyScore(c, tt.difficulty); got != tt.want {
				t.Errorf("difficultyScore = %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestNamesOverlap(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"创新工程学院", "创新工程学院", true},
		{"创新工程学院", "创新工程", true},
		{"创新工程", "创新工程学院", true},
		{"商学院", "创新工程学院", false},
		{"", "商学院", false},
		{"商学院", "", false},
	}
	for _, tt := range tests {
		if got := namesOverlap(tt.a, tt.b); got != tt.want {
			t.Errorf("namesOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
