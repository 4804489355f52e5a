package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"exam-control/internal/dto"
	"exam-control/internal/service"
	"exam-control/pkg/response"
)

// ImportHandler 表格导入 HTTP 处理器
type ImportHandler struct {
	importSvc service.ImportService
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(importSvc service.ImportService) *ImportHandler {
	return &ImportHandler{importSvc: importSvc}
}

// Preview 读取上传表格的表头并给出建议映射
// POST /api/v1/imports/preview  (multipart: kind, file)
func (h *ImportHandler) Preview(c *gin.Context) {
	var req dto.ImportPreviewRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	file, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.importSvc.Preview(c.Request.Context(), req.Kind, file)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, result)
}

// Import 按映射导入教师 / 学生 / 考场模板
// POST /api/v1/imports/:kind  (multipart: file, mapping)
func (h *ImportHandler) Import(c *gin.Context) {
	kind := c.Param("kind")

	var req dto.ImportRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	var mapping map[string]string
	if strings.TrimSpace(req.Mapping) != "" {
		if err := json.Unmarshal([]byte(req.Mapping), &mapping); err != nil {
			response.BadRequest(c, 12006, "mapping 须为 JSON 对象（字段 → 表头）")
			return
		}
	}

	file, ok := openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.importSvc.Import(c.Request.Context(), kind, file, mapping)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, result)
}

// openUpload 读取 multipart 字段 file，只接受 .xlsx
func openUpload(c *gin.Context) (multipart.File, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 12007, "请上传 Excel 文件（字段名 file）")
		return nil, false
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		response.BadRequest(c, 12002, "仅支持 .xlsx 格式")
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		response.InternalError(c)
		return nil, false
	}
	return f, true
}

func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportUnknownKind):
		response.NotFound(c, 12001, "未知的导入类型")
	case errors.Is(err, service.ErrImportBadFile):
		response.BadRequest(c, 12002, "无法解析Excel文件")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 12003, "Excel文件无数据行")
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 12004, "无法识别编号或姓名列，请指定列映射")
	case errors.Is(err, service.ErrImportBadMapping):
		response.ErrorWithDetails(c, http.StatusBadRequest, 12005, "列映射引用了不存在的表头", err.Error())
	case errors.Is(err, service.ErrImportTooManyRows):
		response.Error(c, http.StatusRequestEntityTooLarge, 12008, err.Error())
	default:
		response.InternalError(c)
	}
}
