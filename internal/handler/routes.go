package handler

import "github.com/gin-gonic/gin"

// Handlers groups the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Results   *ResultHandler
	Marks     *MarksHandler
	Exams     *ExamHandler
	Students  *StudentHandler
	Reference *ReferenceHandler
}

// RegisterRoutes mounts the API on the given group.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	api.GET("/subjects", h.Reference.ListSubjects)
	api.POST("/subjects", h.Reference.CreateSubject)
	api.DELETE("/subjects/:id", h.Reference.DeleteSubject)
	api.GET("/streams", h.Reference.ListStreams)
	api.POST("/streams", h.Reference.CreateStream)
	api.GET("/exam-types", h.Reference.ListExamTypes)
	api.POST("/exam-types", h.Reference.CreateExamType)

	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)

	exams := api.Group("/exams")
	exams.GET("", h.Exams.List)
	exams.POST("", h.Exams.Create)
	exams.GET("/:id", h.Exams.Get)
	exams.PUT("/:id", h.Exams.Update)
	exams.DELETE("/:id", h.Exams.Delete)
	exams.POST("/:id/marks", h.Marks.Enter)
	exams.GET("/:id/marks/stats", h.Marks.Stats)
	exams.GET("/:id/results", h.Results.ClassResults)
	exams.GET("/:id/summary", h.Results.Summary)
	exams.GET("/:id/students/:studentId/result", h.Results.StudentResult)
	exams.GET("/:id/export", h.Results.Export)

	api.DELETE("/exam-results/:id", h.Marks.Delete)
}
