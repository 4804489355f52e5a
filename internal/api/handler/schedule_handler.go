package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"exam-control/internal/dto"
	"exam-control/internal/exam"
	"exam-control/internal/service"
	"exam-control/pkg/response"
)

// ScheduleHandler 考试日程规划 HTTP 处理器
type ScheduleHandler struct {
	plannerSvc service.PlannerService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(plannerSvc service.PlannerService) *ScheduleHandler {
	return &ScheduleHandler{plannerSvc: plannerSvc}
}

// GetSchedule 开考日期与全部场次（日期、时段由序号推导）
// GET /api/v1/schedule
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	plan, err := h.plannerSvc.GetPlan(c.Request.Context())
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, plan)
}

// SetStartDate 修改开考日期，全部场次随之平移
// PUT /api/v1/schedule/start-date
func (h *ScheduleHandler) SetStartDate(c *gin.Context) {
	var req dto.SetStartDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	plan, err := h.plannerSvc.SetStartDate(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, plan)
}

// ResetSessions 按天数重建默认场次
// POST /api/v1/schedule/reset
func (h *ScheduleHandler) ResetSessions(c *gin.Context) {
	var req dto.ResetSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	plan, err := h.plannerSvc.ResetSessions(c.Request.Context(), req.Days)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, plan)
}

// UpdateSession 修改单个场次的时间、科目或启用状态
// PUT /api/v1/schedule/sessions/:id
func (h *ScheduleHandler) UpdateSession(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sess, err := h.plannerSvc.UpdateSession(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, sess)
}

// ApplySession 将场次日程复制到全部现有考场
// POST /api/v1/schedule/apply
func (h *ScheduleHandler) ApplySession(c *gin.Context) {
	var req dto.ApplySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.plannerSvc.ApplySession(c.Request.Context(), req.SessionID)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.OK(c, result)
}

// Expand 可用场次 × 考场模板 → 带日程的试卷袋
// POST /api/v1/schedule/expand
func (h *ScheduleHandler) Expand(c *gin.Context) {
	result, err := h.plannerSvc.Expand(c.Request.Context())
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}
	response.Created(c, result)
}

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 13003, "考试场次不存在")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 13004, "结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrNoSessions):
		response.BadRequest(c, 13005, "尚未配置考试场次")
	case errors.Is(err, exam.ErrNoActiveSessions):
		response.BadRequest(c, 13006, "没有可用的考试场次（需启用且已填写科目）")
	case errors.Is(err, exam.ErrNoTemplates):
		response.BadRequest(c, 13007, "没有可展开的考场模板，请先导入")
	case errors.Is(err, exam.ErrNoCommittees):
		response.BadRequest(c, 13008, "请先分配考场")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 13009, "日期格式无效，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
