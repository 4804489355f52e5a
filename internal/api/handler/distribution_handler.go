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

// DistributionHandler 自动分配考场 HTTP 处理器
type DistributionHandler struct {
	distributionSvc service.DistributionService
}

// NewDistributionHandler 创建 DistributionHandler
func NewDistributionHandler(distributionSvc service.DistributionService) *DistributionHandler {
	return &DistributionHandler{distributionSvc: distributionSvc}
}

// Distribute 按导入顺序重新分配全部考场（会替换现有试卷袋与考勤）
// POST /api/v1/distribution?confirm=true
func (h *DistributionHandler) Distribute(c *gin.Context) {
	var q dto.ConfirmQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	// 请求体可省略
	var req dto.DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.distributionSvc.Distribute(c.Request.Context(), &req, q.Confirm)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		switch {
		case errors.Is(err, exam.ErrNoStudents):
			response.BadRequest(c, 13001, "尚未导入学生")
		case errors.Is(err, exam.ErrInvalidGroupSize):
			response.BadRequest(c, 13002, "考场人数必须大于 0")
		case errors.Is(err, service.ErrInvalidDate):
			response.BadRequest(c, 13009, "日期格式无效，应为 YYYY-MM-DD")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}
