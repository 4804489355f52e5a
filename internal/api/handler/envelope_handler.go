package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"exam-control/internal/dto"
	"exam-control/internal/exam"
	"exam-control/internal/service"
	"exam-control/pkg/response"
)

// EnvelopeHandler 试卷袋与考勤 HTTP 处理器
type EnvelopeHandler struct {
	envelopeSvc service.EnvelopeService
}

// NewEnvelopeHandler 创建 EnvelopeHandler
func NewEnvelopeHandler(envelopeSvc service.EnvelopeService) *EnvelopeHandler {
	return &EnvelopeHandler{envelopeSvc: envelopeSvc}
}

// ListEnvelopes 试卷袋列表（按考场编号排序，可按状态/考场/日期筛选）
// GET /api/v1/envelopes
func (h *EnvelopeHandler) ListEnvelopes(c *gin.Context) {
	var q dto.EnvelopeListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.envelopeSvc.List(c.Request.Context(), &q)
	if err != nil {
		h.handleEnvelopeError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list, "total": len(list)})
}

// GetEnvelope 试卷袋详情（含学生考勤）
// GET /api/v1/envelopes/:id
func (h *EnvelopeHandler) GetEnvelope(c *gin.Context) {
	env, err := h.envelopeSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleEnvelopeError(c, err)
		return
	}
	response.OK(c, env)
}

// OpenCommittee 扫码或手动选择考场开启试卷袋
// POST /api/v1/envelopes/open
func (h *EnvelopeHandler) OpenCommittee(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.OpenCommitteeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.envelopeSvc.OpenCommittee(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleEnvelopeError(c, err)
		return
	}
	response.OK(c, result)
}

// Submit 交回考务
// POST /api/v1/envelopes/:id/submit
func (h *EnvelopeHandler) Submit(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	env, err := h.envelopeSvc.Submit(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleEnvelopeError(c, err)
		return
	}
	response.OK(c, env)
}

// SetAttendance 显式标记出席 / 缺席
// PUT /api/v1/envelopes/:id/students/:studentId/attendance
func (h *EnvelopeHandler) SetAttendance(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.SetAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	st, err := h.envelopeSvc.SetAttendance(c.Request.Context(), c.Param("id"), c.Param("studentId"), req.Status, actor)
	if err != nil {
		h.handleEnvelopeError(c, err)
		return
	}
	response.OK(c, st)
}

// ToggleAttendance 出席 ↔ 缺席 切换
// POST /api/v1/envelopes/:id/students/:studentId/toggle
func (h *EnvelopeHandler) ToggleAttendance(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	st, err := h.envelopeSvc.ToggleAttendance(c.Request.Context(), c.Param("id"), c.Param("studentId"), actor)
	if err != nil {
		h.handleEnvelopeError(c, err)
		return
	}
	response.OK(c, st)
}

func (h *EnvelopeHandler) handleEnvelopeError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrEnvelopeNotFound):
		response.NotFound(c, 14001, "试卷袋不存在")
	case errors.Is(err, service.ErrCommitteeNotFound):
		response.NotFound(c, 14002, "未找到该考场的试卷袋")
	case errors.Is(err, service.ErrNotAssignedProctor):
		response.Forbidden(c, 14003, "该试卷袋已由其他监考教师领取")
	case errors.Is(err, exam.ErrInvalidTransition):
		response.Conflict(c, 14004, "试卷袋状态不允许该操作")
	case errors.Is(err, exam.ErrAlreadySubmitted):
		response.Conflict(c, 14005, "试卷袋已交回考务，不可再开启")
	case errors.Is(err, exam.ErrNotInProgress):
		response.Conflict(c, 14006, "试卷袋不在考试进行中，无法修改考勤")
	case errors.Is(err, exam.ErrStudentNotFound):
		response.NotFound(c, 14007, "该学生不在此试卷袋中")
	case errors.Is(err, exam.ErrInvalidAttendance):
		response.BadRequest(c, 14008, "考勤只能标记为出席或缺席")
	case errors.Is(err, exam.ErrTemplateEnvelope):
		response.Error(c, http.StatusConflict, 14009, "模板试卷袋不参与考试流程")
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 14010, "未知的试卷袋状态")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 13009, "日期格式无效，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
