package handler

import (
	"github.com/gin-gonic/gin"

	"exam-control/internal/dto"
	"exam-control/internal/service"
	"exam-control/pkg/response"
)

// StudentHandler 学生名册 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// ListStudents 按导入顺序列出学生
// GET /api/v1/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	list, err := h.studentSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": list, "total": len(list)})
}

// ClearStudents 清空学生名册（已分配的试卷袋不受影响）
// DELETE /api/v1/students?confirm=true
func (h *StudentHandler) ClearStudents(c *gin.Context) {
	var q dto.ConfirmQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	n, err := h.studentSvc.Clear(c.Request.Context(), q.Confirm)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"deleted": n})
}
