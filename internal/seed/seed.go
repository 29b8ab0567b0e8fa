package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/liuwen/courseadvisor/internal/app/models"
	appRepos "github.com/liuwen/courseadvisor/internal/app/repositories"
)

type teacherSeed struct {
	name      string
	title     string
	specialty string
	faculty   string
}

type courseSeed struct {
	code        string
	name        string
	description string
	credits     float64
	courseType  appModels.CourseType
	faculty     string
	teacher     string
	ratings     []int
}

var facultySeeds = []appModels.Faculty{
	{Name: "创新工程学院", Code: "FIE"},
	{Name: "商学院", Code: "BUS"},
	{Name: "人文艺术学院", Code: "FA"},
	{Name: "酒店与旅游管理学院", Code: "FHTM"},
	{Name: "医学院", Code: "FMD"},
}

var teacherSeeds = []teacherSeed{
	{"陈伟", "教授", "人工智能与机器学习专家", "创新工程学院"},
	{"林晓明", "副教授", "软件工程与系统架构专家", "创新工程学院"},
	{"黄建华", "教授", "财务管理与投资分析专家", "商学院"},
	{"周梅", "副教授", "市场营销策略专家", "商学院"},
	{"王艺琳", "教授", "设计与艺术评论家", "人文艺术学院"},
	{"刘芳", "副教授", "文化研究与创意写作专家", "人文艺术学院"},
	{"张红", "教授", "酒店管理专家", "酒店与旅游管理学院"},
	{"李强", "副教授", "旅游经济学专家", "酒店与旅游管理学院"},
	{"赵明德", "教授", "内科主任医师", "医学院"},
	{"孙丽丽", "副教授", "临床药理学专家", "医学院"},
}

var courseSeeds = []courseSeed{
	{"CS101", "人工智能导论", "人工智能的基本概念、发展历史与典型应用，覆盖机器学习、知识表示与智能体。", 3, appModels.CourseTypeElective, "创新工程学院", "陈伟", []int{5, 5, 4, 5, 4, 5, 5, 4}},
	{"CS102", "数据结构与算法", "线性表、树、图等基础数据结构及其经典算法，配套编程实践。", 4, appModels.CourseTypeCompulsory, "创新工程学院", "陈伟", []int{4, 5, 4, 4, 5, 3}},
	{"CS201", "软件工程", "软件生命周期、需求分析、架构设计与团队协作方法。", 3, appModels.CourseTypeCompulsory, "创新工程学院", "林晓明", []int{4, 4, 5, 4}},
	{"CS202", "数据库系统", "关系模型、SQL、事务与索引，兼顾应用开发视角。", 3, appModels.CourseTypeElective, "创新工程学院", "林晓明", []int{4, 4, 4, 5, 4}},
	{"BUS101", "财务管理基础", "企业财务决策、资本预算与投资分析入门。", 3, appModels.CourseTypeCompulsory, "商学院", "黄建华", []int{4, 4, 3, 4, 4}},
	{"BUS201", "市场营销学", "市场营销基本理论与案例分析，适合无商科背景的学生。", 2, appModels.CourseTypeElective, "商学院", "周梅", []int{5, 4, 4, 5, 4, 4}},
	{"ART101", "设计思维入门", "以工作坊形式训练创意表达与视觉设计基础。", 2, appModels.CourseTypeElective, "人文艺术学院", "王艺琳", []int{5, 5, 4, 5}},
	{"ART201", "创意写作", "叙事技巧、文体训练与作品互评，小班研讨课。", 2, appModels.CourseTypeElective, "人文艺术学院", "刘芳", []int{4, 5, 4, 4}},
	{"HTM101", "酒店管理概论", "酒店运营各环节的管理框架与服务质量体系。", 3, appModels.CourseTypeCompulsory, "酒店与旅游管理学院", "张红", []int{4, 4, 4}},
	{"HTM201", "旅游经济学", "旅游市场的供需结构与经济影响分析。", 3, appModels.CourseTypeElective, "酒店与旅游管理学院", "李强", []int{3, 4, 4, 3}},
	{"MED101", "基础医学导论", "人体结构与功能概览，面向医学入门学生的必修课程。", 4, appModels.CourseTypeCompulsory, "医学院", "赵明德", []int{4, 4, 5, 4, 4}},
	{"MED201", "药理学基础", "常用药物的作用机制与临床应用原则。", 3, appModels.CourseTypeElective, "医学院", "孙丽丽", []int{4, 3, 4, 4}},
}

// CreateDefaultData seeds the catalog on an empty database: the five
// faculties, their teachers and a starter course list with reviews so
// recommendations work out of the box. A non-empty faculties table means the
// catalog was already seeded and the whole step is skipped.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	facultyRepo := appRepos.NewFacultyRepository(dbPool)
	teacherRepo := appRepos.NewTeacherRepository(dbPool)
	courseRepo := appRepos.NewCourseRepository(dbPool)

	count, err := facultyRepo.CountFaculties(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		lgr.Info().Int64("faculties", count).Msg("Catalog already seeded, skipping default data")
		return nil
	}

	lgr.Info().Msg("Seeding default catalog data...")
	var finalErr error

	facultyIDs := make(map[string]int64, len(facultySeeds))
	for i := range facultySeeds {
		faculty := facultySeeds[i]
		id, err := facultyRepo.CreateFaculty(ctx, &faculty)
		if err != nil {
			lgr.Error().Err(err).Str("faculty", faculty.Name).Msg("Error creating faculty")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		facultyIDs[faculty.Name] = id
	}

	teacherIDs := make(map[string]int64, len(teacherSeeds))
	for _, seed := range teacherSeeds {
		facultyID, ok := facultyIDs[seed.faculty]
		if !ok {
			continue
		}
		teacher := &appModels.Teacher{
			Name:      seed.name,
			Title:     seed.title,
			Specialty: seed.specialty,
			FacultyID: facultyID,
		}
		id, err := teacherRepo.CreateTeacher(ctx, teacher)
		if err != nil {
			lgr.Error().Err(err).Str("teacher", seed.name).Msg("Error creating teacher")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		teacherIDs[seed.name] = id
	}

	for _, seed := range courseSeeds {
		facultyID, okFaculty := facultyIDs[seed.faculty]
		teacherID, okTeacher := teacherIDs[seed.teacher]
		if !okFaculty || !okTeacher {
			continue
		}
		course := &appModels.Course{
			Code:        seed.code,
			Name:        seed.name,
			Description: seed.description,
			Credits:     seed.credits,
			Type:        seed.courseType,
			FacultyID:   facultyID,
			TeacherID:   teacherID,
		}
		courseID, err := courseRepo.CreateCourse(ctx, course)
		if err != nil {
			lgr.Error().Err(err).Str("course", seed.name).Msg("Error creating course")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		for _, rating := range seed.ratings {
			if _, err := courseRepo.AddReview(ctx, courseID, rating, ""); err != nil {
				lgr.Error().Err(err).Str("course", seed.name).Msg("Error creating review")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	lgr.Info().
		Int("faculties", len(facultyIDs)).
		Int("teachers", len(teacherIDs)).
		Int("courses", len(courseSeeds)).
		Msg("Default catalog data created")
	return finalErr
}
