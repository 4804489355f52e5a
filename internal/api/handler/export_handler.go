package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"exam-control/internal/service"
	"exam-control/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
	contentTypePNG  = "image/png"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRoster 导出考场名单（每个试卷袋一个 Sheet）
// GET /api/v1/export/roster
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// ExportCalendar 导出考试日程（iCalendar）；teacher_id 可选，教师本人只能导出自己的
// GET /api/v1/export/calendar?teacher_id=xxx
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	teacherID := c.Query("teacher_id")
	if pid := actor.ProctorID(); pid != "" {
		teacherID = pid
	}

	data, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), teacherID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	attachment(c, filename)
	c.Data(http.StatusOK, contentTypeICS, data)
}

// EnvelopeQRCode 试卷袋二维码（内容为 QR_{考场}）
// GET /api/v1/envelopes/:id/qrcode
func (h *ExportHandler) EnvelopeQRCode(c *gin.Context) {
	png, err := h.exportSvc.EnvelopeQRCode(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypePNG, png)
}

// TeacherQRCode 教师胸牌二维码（内容为 T_{编号}）
// GET /api/v1/teachers/:id/qrcode
func (h *ExportHandler) TeacherQRCode(c *gin.Context) {
	png, err := h.exportSvc.TeacherQRCode(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypePNG, png)
}

// attachment 设置下载响应头（文件名含阿拉伯文，使用 RFC 5987 编码）
func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoEnvelopes):
		response.NotFound(c, 16001, "暂无可导出的试卷袋")
	case errors.Is(err, service.ErrEnvelopeNotFound):
		response.NotFound(c, 14001, "试卷袋不存在")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 15001, "教师不存在")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 16002, "生成导出文件失败")
	default:
		response.InternalError(c)
	}
}
