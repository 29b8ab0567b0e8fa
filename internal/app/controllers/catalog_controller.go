package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/liuwen/courseadvisor/internal/app/models/dto"
	"github.com/liuwen/courseadvisor/internal/app/services"
	"github.com/liuwen/courseadvisor/internal/middleware"
)

// CatalogController serves catalog read endpoints
type CatalogController struct {
	catalogService services.CatalogService
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
	}
}

// GetAllCourses godoc
// @Summary Get all courses
// @Description Returns the course catalog with aggregated review statistics
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.CourseListResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses [get]
func (c *CatalogController) GetAllCourses(ctx *gin.Context) {
	courses, err := c.catalogService.Courses(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.CourseListResponse{
		Courses: make([]dto.CourseResponse, 0, len(courses)),
	}
	for _, course := range courses {
		response.Courses = append(response.Courses, dto.ToCourseResponse(course))
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// GetCourseByID godoc
// @Summary Get course details
// @Description Returns one course with fresh review statistics
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid course ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/{id} [get]
func (c *CatalogController) GetCourseByID(ctx *gin.Context) {
	idStr := ctx.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid course ID")
		errorDetail = errorDetail.WithDetails("Course ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	course, err := c.catalogService.CourseByID(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ToCourseResponse(course)))
}

// GetAllFaculties godoc
// @Summary Get all faculties
// @Description Returns the faculties in catalog order
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.FacultyListResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /faculties [get]
func (c *CatalogController) GetAllFaculties(ctx *gin.Context) {
	faculties, err := c.catalogService.Faculties(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.FacultyListResponse{
		Faculties: make([]dto.FacultyResponse, 0, len(faculties)),
	}
	for _, faculty := range faculties {
		response.Faculties = append(response.Faculties, dto.ToFacultyResponse(faculty))
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// GetAllTeachers godoc
// @Summary Get all teachers
// @Description Returns the teachers with their faculty context
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.TeacherListResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /teachers [get]
func (c *CatalogController) GetAllTeachers(ctx *gin.Context) {
	teachers, err := c.catalogService.Teachers(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.TeacherListResponse{
		Teachers: make([]dto.TeacherResponse, 0, len(teachers)),
	}
	for _, teacher := range teachers {
		response.Teachers = append(response.Teachers, dto.ToTeacherResponse(teacher))
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}
