package models

import (
	"reflect"
	"testing"
)

func fullCriteria() Criteria {
	credits := 3.0
	return Criteria{
		CourseType: CourseTypeElective,
		Credits:    &credits,
		Keywords:   []string{"人工智能", "编程"},
		Difficulty: DifficultyEasy,
		Faculty:    "创新工程学院",
		Teacher:    "陈伟",
	}
}

func TestMergeEmptyDeltaKeepsPrior(t *testing.T) {
	prior := fullCriteria()
	merged := prior.Merge(Criteria{})

	if !reflect.DeepEqual(merged, prior) {
		t.Fatalf("merged = %+v, want prior %+v", merged, prior)
	}
}

func TestMergeFullDeltaReplacesEverything(t *testing.T) {
	credits := 2.0
	prior := fullCriteria()
	delta := Criteria{
		CourseType: CourseTypeCompulsory,
		Credits:    &credits,
		Keywords:   []string{"市场营销"},
		Difficulty: DifficultyHard,
		Faculty:    "商学院",
		Teacher:    "周梅",
	}

	merged := prior.Merge(delta)
	if !reflect.DeepEqual(merged, delta) {
		t.Fatalf("merged = %+v, want delta %+v", merged, delta)
	}
}

func TestMergeKeywordsReplacedWholesale(t *testing.T) {
	prior := Criteria{Keywords: []string{"人工智能", "编程"}}
	merged := prior.Merge(Criteria{Keywords: []string{"设计"}})

	if !reflect.DeepEqual(merged.Keywords, []string{"设计"}) {
		t.Fatalf("keywords = %v, want wholesale replacement", merged.Keywords)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	prior := Criteria{Keywords: []string{"人工智能"}}
	delta := Criteria{Faculty: "商学院"}

	merged := prior.Merge(delta)
	merged.Keywords[0] = "changed"

	if prior.Keywords[0] != "人工智能" {
		t.Fatalf("prior keywords mutated: %v", prior.Keywords)
	}
	if delta.Faculty != "商学院" {
		t.Fatalf("delta mutated: %+v", delta)
	}
}

func TestIsEmpty(t *testing.T) {
	if !(Criteria{}).IsEmpty() {
		t.Fatal("zero criteria should be empty")
	}
	if fullCriteria().IsEmpty() {
		t.Fatal("full criteria should not be empty")
	}
	if (Criteria{Teacher: "陈伟"}).IsEmpty() {
		t.Fatal("criteria with teacher should not be empty")
	}
}

func TestNormalizeKeywords(t *testing.T) {
	c := Criteria{Keywords: []string{"人工智能", "", "编程", "人工智能"}}
	c.NormalizeKeywords()

	want := []string{"人工智能", "编程"}
	if !reflect.DeepEqual(c.Keywords, want) {
		t.Fatalf("keywords = %v, want %v", c.Keywords, want)
	}
}
