package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"exam-control/internal/dto"
	"exam-control/internal/service"
	"exam-control/pkg/response"
)

// ReportHandler 统计与报告 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Stats 控制台统计
// GET /api/v1/reports/stats
func (h *ReportHandler) Stats(c *gin.Context) {
	st, err := h.reportSvc.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, st)
}

// Absences 缺席名单（辅导员跟进）
// GET /api/v1/reports/absences
func (h *ReportHandler) Absences(c *gin.Context) {
	list, err := h.reportSvc.Absences(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": list, "total": len(list)})
}

// SmartReport 生成智能分析报告；外部服务失败时返回兜底文案
// POST /api/v1/reports/smart
func (h *ReportHandler) SmartReport(c *gin.Context) {
	var req dto.SmartReportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.reportSvc.SmartReport(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
