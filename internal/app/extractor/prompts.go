package extractor

import (
	"fmt"
	"strings"

	"github.com/liuwen/courseadvisor/internal/app/models"
)

// facultyHints maps a faculty name to the subject areas the model should
// associate with it when the user speaks in topics rather than faculty names.
var facultyHints = map[string]string{
	"创新工程学院":    "包含计算机、软件、编程、IT、人工智能、AI、算法、数据结构、数据库等相关课程",
	"商学院":       "包含经济、金融、会计、管理、营销、投资等相关课程",
	"人文艺术学院":    "包含艺术、设计、文化、写作、媒体、创意等相关课程",
	"酒店与旅游管理学院": "包含酒店、旅游、会展、餐饮、服务等相关课程",
	"医学院":       "包含医学、医疗、临床、药理、解剖、生理、健康等相关课程",
}

// intentParserPrompt builds the system prompt for intent parsing. The
// faculty and teacher lists come from the catalog so the model can only
// produce names that exist.
func intentParserPrompt(lex Lexicon) string {
	var b strings.Builder

	b.WriteString("你是一个专业的课程需求分析专家。你的任务是从用户的自然语言消息中提取结构化的课程需求参数。\n\n")

	b.WriteString("## 可用的学院列表（你需要将用户的模糊表达智能映射到具体学院）：\n")
	for _, f := range lex.Faculties {
		if hint, ok := facultyHints[f.Name]; ok {
			fmt.Fprintf(&b, "- %s：%s\n", f.Name, hint)
		} else {
			fmt.Fprintf(&b, "- %s\n", f.Name)
		}
	}

	b.WriteString("\n## 可用的教师列表：\n")
	for _, t := range lex.Teachers {
		faculty := ""
		if t.Faculty != nil {
			faculty = t.Faculty.Name
		}
		fmt.Fprintf(&b, "- %s（%s，%s）：%s\n", t.Name, faculty, t.Title, t.Specialty)
	}

	b.WriteString(`
## 可提取的参数：
- courseType: 课程类型，只能是"COMPULSORY"（必修课）或"ELECTIVE"（选修课）
- credits: 学分数字（如2、3、4等）
- keywords: 兴趣关键词数组（如：["编程", "数学", "设计"]等）
- difficulty: 难度，只能是"easy"（简单）、"medium"（中等）或"hard"（困难）
- faculty: 学院名称（必须是上述学院之一的完整名称）
- teacher: 教师姓名（必须是上述教师之一）

## 智能映射规则：
1. 当用户提到"编程"、"计算机"、"软件"、"AI"、"人工智能"等词时，映射到 faculty: "创新工程学院"
2. 当用户提到"医学"、"医疗"、"临床"、"药"、"健康"等词时，映射到 faculty: "医学院"
3. 当用户提到"经济"、"金融"、"会计"、"商业"、"营销"等词时，映射到 faculty: "商学院"
4. 当用户提到"设计"、"艺术"、"写作"、"媒体"等词时，映射到 faculty: "人文艺术学院"
5. 当用户提到"酒店"、"旅游"、"会展"等词时，映射到 faculty: "酒店与旅游管理学院"
6. 当用户提到具体教师名字时，提取到 teacher 参数

## 规则：
1. 优先进行学院和教师的智能映射，将用户的模糊表达转换为明确参数
2. 没有明确提到的参数设为null或空数组
3. 当有明确的学院或教师需求时，设置 needMoreInfo 为 false，直接进行推荐
4. 只有在用户需求非常模糊时才设置 needMoreInfo 为 true

必须严格按照以下JSON格式输出：
{
  "intent": "query",
  "parameters": {
    "courseType": null,
    "credits": null,
    "keywords": [],
    "difficulty": null,
    "faculty": null,
    "teacher": null
  },
  "confidence": 0.9,
  "needMoreInfo": false,
  "nextQuestion": null
}`)

	return b.String()
}

// userContextPrompt renders the utterance and any prior criteria for the
// intent parser.
func userContextPrompt(utterance string, prior models.Criteria) string {
	var b strings.Builder

	fmt.Fprintf(&b, "用户消息：%s\n\n", utterance)

	if !prior.IsEmpty() {
		b.WriteString("已知的用户需求：\n")
		if prior.CourseType != "" {
			fmt.Fprintf(&b, "- 课程类型：%s\n", courseTypeLabel(prior.CourseType))
		}
		if prior.Credits != nil {
			fmt.Fprintf(&b, "- 学分：%g\n", *prior.Credits)
		}
		if len(prior.Keywords) > 0 {
			fmt.Fprintf(&b, "- 兴趣关键词：%s\n", strings.Join(prior.Keywords, "、"))
		}
		if prior.Difficulty != "" {
			fmt.Fprintf(&b, "- 难度偏好：%s\n", prior.Difficulty)
		}
		if prior.Faculty != "" {
			fmt.Fprintf(&b, "- 学院：%s\n", prior.Faculty)
		}
		if prior.Teacher != "" {
			fmt.Fprintf(&b, "- 教师：%s\n", prior.Teacher)
		}
		b.WriteString("\n")
	}

	b.WriteString("请分析用户消息，提取新的需求参数（特别注意将用户的模糊表达映射到具体学院），并判断是否需要询问更多信息。")

	return b.String()
}

func courseTypeLabel(t models.CourseType) string {
	if t == models.CourseTypeCompulsory {
		return "必修课"
	}
	return "选修课"
}
