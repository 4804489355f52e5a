package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"exam-control/internal/dto"
	"exam-control/internal/service"
	"exam-control/pkg/response"
)

// TeacherHandler 监考教师 HTTP 处理器
type TeacherHandler struct {
	teacherSvc  service.TeacherService
	envelopeSvc service.EnvelopeService
}

// NewTeacherHandler 创建 TeacherHandler
func NewTeacherHandler(teacherSvc service.TeacherService, envelopeSvc service.EnvelopeService) *TeacherHandler {
	return &TeacherHandler{teacherSvc: teacherSvc, envelopeSvc: envelopeSvc}
}

// ListTeachers 教师列表
// GET /api/v1/teachers
func (h *TeacherHandler) ListTeachers(c *gin.Context) {
	list, err := h.teacherSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": list, "total": len(list)})
}

// ListTeacherEnvelopes 某位教师领取的试卷袋；教师本人只能查看自己的
// GET /api/v1/teachers/:id/envelopes
func (h *TeacherHandler) ListTeacherEnvelopes(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if actor.ProctorID() != "" && actor.ProctorID() != id {
		response.Forbidden(c, 10003, "无权限访问")
		return
	}

	list, err := h.envelopeSvc.ListByTeacher(c.Request.Context(), id)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// ClearTeachers 删除全部教师并清空试卷袋上的监考人
// DELETE /api/v1/teachers?confirm=true
func (h *TeacherHandler) ClearTeachers(c *gin.Context) {
	var q dto.ConfirmQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.teacherSvc.Clear(c.Request.Context(), q.Confirm)
	if err != nil {
		h.handleTeacherError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *TeacherHandler) handleTeacherError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 15001, "教师不存在")
	default:
		response.InternalError(c)
	}
}
