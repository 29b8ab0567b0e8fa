package models

// Difficulty is the requested difficulty preference for recommendations
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Criteria holds the recommendation constraints accumulated over a conversation.
// The zero value means "no constraints" and is valid. Fields use empty string or
// nil as the unset marker so a partial delta can be merged over prior criteria.
type Criteria struct {
	CourseType CourseType `json:"courseType,omitempty"`
	Credits    *float64   `json:"credits,omitempty"`
	Keywords   []string   `json:"keywords,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Faculty    string     `json:"faculty,omitempty"`
	Teacher    string     `json:"teacher,omitempty"`
}

// IsEmpty reports whether no constraint is set.
func (c Criteria) IsEmpty() bool {
	return c.CourseType == "" &&
		c.Credits == nil &&
		len(c.Keywords) == 0 &&
		c.Difficulty == "" &&
		c.Faculty == "" &&
		c.Teacher == ""
}

// Merge overlays delta on top of c and returns the result as a new value.
// A delta field replaces the prior one only when it is set; keywords are
// replaced wholesale, never unioned, so a new topic fully supersedes the old.
// Neither receiver nor delta is mutated.
func (c Criteria) Merge(delta Criteria) Criteria {
	out := c
	out.Keywords = append([]string(nil), c.Keywords...)
	if delta.CourseType != "" {
		out.CourseType = delta.CourseType
	}
	if delta.Credits != nil {
		v := *delta.Credits
		out.Credits = &v
	}
	if len(delta.Keywords) > 0 {
		out.Keywords = append([]string(nil), delta.Keywords...)
	}
	if delta.Difficulty != "" {
		out.Difficulty = delta.Difficulty
	}
	if delta.Faculty != "" {
		out.Faculty = delta.Faculty
	}
	if delta.Teacher != "" {
		out.Teacher = delta.Teacher
	}
	return out
}

// NormalizeKeywords drops empty and duplicate keywords, keeping first-seen order.
func (c *Criteria) NormalizeKeywords() {
	if len(c.Keywords) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(c.Keywords))
	kept := c.Keywords[:0]
	for _, kw := range c.Keywords {
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		kept = append(kept, kw)
	}
	c.Keywords = kept
}

// ValidCourseType reports whether s is a known course type value.
func ValidCourseType(s string) bool {
	return s == string(CourseTypeCompulsory) || s == string(CourseTypeElective)
}

// ValidDifficulty reports whether s is a known difficulty value.
func ValidDifficulty(s string) bool {
	return s == string(DifficultyEasy) || s == string(DifficultyMedium) || s == string(DifficultyHard)
}
