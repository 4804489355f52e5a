package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"exam-control/internal/dto"
	"exam-control/internal/model"
	"exam-control/internal/repository"
	"exam-control/pkg/metrics"
)

// ── 导入模块业务错误 ──

var (
	ErrImportUnknownKind = errors.New("未知的导入类型")
	ErrImportBadFile     = errors.New("无法解析Excel文件")
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（编号/姓名）")
	ErrImportBadMapping  = errors.New("列映射引用了不存在的表头")
	ErrImportTooManyRows = errors.New("数据行数超过上限")
)

// 导入字段
const (
	fieldID        = "id"
	fieldName      = "name"
	fieldGrade     = "grade"
	fieldClassroom = "classroom"
	fieldPhone     = "phone"
	fieldCommittee = "committee"
	fieldVenue     = "venue"
)

// previewRows 预览返回的样例行数
const previewRows = 5

// 模板导入缺省值
const (
	defaultTemplateCommittee = "1"
	defaultTemplateVenue     = "القاعة"
	templateSubject          = "بانتظار الجدولة"
)

// kindFields 每种导入类型可映射的字段（顺序即预览展示顺序）
var kindFields = map[string][]string{
	dto.ImportTeachers:  {fieldID, fieldName, fieldPhone},
	dto.ImportStudents:  {fieldID, fieldName, fieldGrade, fieldClassroom, fieldPhone},
	dto.ImportTemplates: {fieldID, fieldName, fieldGrade, fieldClassroom, fieldPhone, fieldCommittee, fieldVenue},
}

// headerAliases 表头启发式匹配：按优先级排列
var headerAliases = map[string]map[string][]string{
	dto.ImportTeachers: {
		fieldID:    {"رقم المعلم", "رقم الموظف", "السجل المدني", "id"},
		fieldName:  {"اسم المعلم", "الاسم", "name"},
		fieldPhone: {"الجوال", "رقم الجوال", "phone"},
	},
	dto.ImportStudents: {
		fieldID:        {"رقم الجلوس", "رقم الطالب", "id"},
		fieldName:      {"اسم الطالب", "الاسم", "name"},
		fieldGrade:     {"الصف", "grade"},
		fieldClassroom: {"الفصل", "class", "classroom"},
		fieldPhone:     {"رقم الجوال", "الجوال", "phone"},
	},
}

func init() {
	tpl := map[string][]string{
		fieldCommittee: {"اللجنة", "رقم اللجنة", "اللجان", "committee"},
		fieldVenue:     {"المقر", "القاعة", "venue"},
	}
	for k, v := range headerAliases[dto.ImportStudents] {
		tpl[k] = v
	}
	headerAliases[dto.ImportTemplates] = tpl
}

// ImportService 表格导入业务接口
type ImportService interface {
	// Preview 读取表头并给出建议映射，不写库
	Preview(ctx context.Context, kind string, r io.Reader) (*dto.ImportPreviewResponse, error)
	// Import 按映射导入；mapping 为 字段 → 表头，未给出的字段按表头启发式匹配
	Import(ctx context.Context, kind string, r io.Reader, mapping map[string]string) (*dto.ImportResult, error)
}

type importService struct {
	repo    *repository.Repository
	feed    ChangeFeed
	maxRows int
	logger  *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo *repository.Repository, feed ChangeFeed, maxRows int, logger *zap.Logger) ImportService {
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &importService{repo: repo, feed: feed, maxRows: maxRows, logger: logger}
}

// ────────────────────── Preview ──────────────────────

func (s *importService) Preview(_ context.Context, kind string, r io.Reader) (*dto.ImportPreviewResponse, error) {
	fields, ok := kindFields[kind]
	if !ok {
		return nil, ErrImportUnknownKind
	}
	headers, rows, err := s.readSheet(r)
	if err != nil {
		return nil, err
	}

	idx := suggestMapping(kind, headers)
	mapping := make(map[string]string, len(idx))
	for f, i := range idx {
		mapping[f] = headers[i]
	}

	n := len(rows)
	if n > previewRows {
		n = previewRows
	}
	return &dto.ImportPreviewResponse{
		Kind:     kind,
		Headers:  headers,
		Fields:   fields,
		Mapping:  mapping,
		Sample:   rows[:n],
		RowCount: len(rows),
	}, nil
}

// ────────────────────── Import ──────────────────────

func (s *importService) Import(ctx context.Context, kind string, r io.Reader, mapping map[string]string) (*dto.ImportResult, error) {
	if _, ok := kindFields[kind]; !ok {
		return nil, ErrImportUnknownKind
	}
	headers, rows, err := s.readSheet(r)
	if err != nil {
		return nil, err
	}
	cols, err := resolveMapping(kind, headers, mapping)
	if err != nil {
		return nil, err
	}

	var res *dto.ImportResult
	switch kind {
	case dto.ImportTeachers:
		res, err = s.importTeachers(ctx, rows, cols)
	case dto.ImportStudents:
		res, err = s.importStudents(ctx, rows, cols)
	default:
		res, err = s.importTemplates(ctx, rows, cols)
	}
	if err != nil {
		return nil, err
	}

	res.Kind = kind
	metrics.ImportedRows.WithLabelValues(kind, "imported").Add(float64(res.Imported))
	metrics.ImportedRows.WithLabelValues(kind, "skipped").Add(float64(res.Skipped))
	s.logger.Info("表格导入完成",
		zap.String("kind", kind),
		zap.Int("total", res.Total),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (s *importService) importTeachers(ctx context.Context, rows [][]string, cols map[string]int) (*dto.ImportResult, error) {
	res := &dto.ImportResult{Total: len(rows)}
	seen := make(map[string]int)
	var teachers []model.Teacher

	for _, row := range rows {
		id, name := cellAt(row, cols, fieldID), cellAt(row, cols, fieldName)
		if id == "" || name == "" {
			res.Skipped++
			continue
		}
		t := model.Teacher{
			TeacherID: id,
			Name:      name,
			Phone:     cellAt(row, cols, fieldPhone),
			QRCode:    teacherQRPrefix + id,
		}
		// 同一文件内重复编号以最后一行为准
		if i, dup := seen[id]; dup {
			teachers[i] = t
			res.Skipped++
			continue
		}
		seen[id] = len(teachers)
		teachers = append(teachers, t)
	}

	if err := s.repo.Teacher.BatchUpsert(ctx, teachers); err != nil {
		s.logger.Error("批量写入教师失败", zap.Error(err))
		return nil, err
	}
	res.Imported = len(teachers)
	s.feed.Publish(ctx, ChangeEvent{Kind: EventTeachers})
	return res, nil
}

func (s *importService) importStudents(ctx context.Context, rows [][]string, cols map[string]int) (*dto.ImportResult, error) {
	res := &dto.ImportResult{Total: len(rows)}

	base, err := s.repo.Student.MaxImportOrder(ctx)
	if err != nil {
		s.logger.Error("查询导入序号失败", zap.Error(err))
		return nil, err
	}

	seen := make(map[string]bool)
	var students []model.Student
	for _, row := range rows {
		st, ok := studentFromRow(row, cols)
		if !ok || seen[st.StudentID] {
			res.Skipped++
			continue
		}
		seen[st.StudentID] = true
		st.ImportOrder = base + len(students) + 1
		students = append(students, st)
	}

	if err := s.repo.Student.BatchUpsert(ctx, students); err != nil {
		s.logger.Error("批量写入学生失败", zap.Error(err))
		return nil, err
	}
	res.Imported = len(students)
	s.feed.Publish(ctx, ChangeEvent{Kind: EventStudents})
	return res, nil
}

// importTemplates 按考场列分组生成 TEMP_{考场} 模板，同一考场的学生保持文件顺序
func (s *importService) importTemplates(ctx context.Context, rows [][]string, cols map[string]int) (*dto.ImportResult, error) {
	res := &dto.ImportResult{Total: len(rows)}

	byCommittee := make(map[string]*model.ExamEnvelope)
	var order []string
	seen := make(map[string]bool)

	for _, row := range rows {
		st, ok := studentFromRow(row, cols)
		if !ok || seen[st.StudentID] {
			res.Skipped++
			continue
		}
		seen[st.StudentID] = true

		committee := normalizeCommittee(cellAt(row, cols, fieldCommittee))
		env, exists := byCommittee[committee]
		if !exists {
			venue := cellAt(row, cols, fieldVenue)
			if venue == "" {
				venue = defaultTemplateVenue
			}
			env = &model.ExamEnvelope{
				EnvelopeID: model.TemplatePrefix + committee,
				Committee:  committee,
				Venue:      venue,
				Subject:    templateSubject,
				Status:     model.EnvelopeNotReceived,
			}
			byCommittee[committee] = env
			order = append(order, committee)
		}
		env.Students = append(env.Students, st)
		res.Imported++
	}

	templates := make([]model.ExamEnvelope, 0, len(order))
	for _, c := range order {
		templates = append(templates, *byCommittee[c])
	}
	if err := s.repo.Envelope.SaveTemplates(ctx, templates); err != nil {
		s.logger.Error("写入考场模板失败", zap.Error(err))
		return nil, err
	}
	s.feed.Publish(ctx, ChangeEvent{Kind: EventSchedule})
	return res, nil
}

// ── 表格读取 ──

// readSheet 读取第一个工作表：首行为表头，跳过全空行
func (s *importService) readSheet(r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrImportBadFile, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrImportBadFile, err)
	}
	if len(excelRows) < 2 {
		return nil, nil, ErrImportNoData
	}

	headers := make([]string, len(excelRows[0]))
	for i, h := range excelRows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for _, row := range excelRows[1:] {
		if isBlankRow(row) {
			continue
		}
		trimmed := make([]string, len(row))
		for i, c := range row {
			trimmed[i] = strings.TrimSpace(c)
		}
		rows = append(rows, trimmed)
	}
	if len(rows) == 0 {
		return nil, nil, ErrImportNoData
	}
	if len(rows) > s.maxRows {
		return nil, nil, fmt.Errorf("%w: %d 行", ErrImportTooManyRows, s.maxRows)
	}
	return headers, rows, nil
}

// suggestMapping 按别名匹配表头，返回 字段 → 列索引
func suggestMapping(kind string, headers []string) map[string]int {
	out := make(map[string]int)
	used := make(map[int]bool)
	for _, field := range kindFields[kind] {
		for _, alias := range headerAliases[kind][field] {
			i := findHeader(headers, alias)
			if i >= 0 && !used[i] {
				out[field] = i
				used[i] = true
				break
			}
		}
	}
	return out
}

// resolveMapping 合并用户映射与启发式匹配；编号与姓名两列必须可定位
func resolveMapping(kind string, headers []string, mapping map[string]string) (map[string]int, error) {
	cols := suggestMapping(kind, headers)
	for field, header := range mapping {
		if !containsField(kindFields[kind], field) {
			continue
		}
		if header == "" {
			delete(cols, field)
			continue
		}
		i := findHeader(headers, header)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrImportBadMapping, header)
		}
		cols[field] = i
	}
	if _, ok := cols[fieldID]; !ok {
		return nil, ErrImportBadHeader
	}
	if _, ok := cols[fieldName]; !ok {
		return nil, ErrImportBadHeader
	}
	return cols, nil
}

func studentFromRow(row []string, cols map[string]int) (model.Student, bool) {
	st := model.Student{
		StudentID: cellAt(row, cols, fieldID),
		Name:      cellAt(row, cols, fieldName),
		Grade:     cellAt(row, cols, fieldGrade),
		Classroom: cellAt(row, cols, fieldClassroom),
		Phone:     cellAt(row, cols, fieldPhone),
		Status:    model.AttendancePending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return st, st.StudentID != "" && st.Name != ""
}

func cellAt(row []string, cols map[string]int, field string) string {
	i, ok := cols[field]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// normalizeCommittee 考场编号去空白；表格里的 "3.0" 之类数值归一为整数
func normalizeCommittee(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultTemplateCommittee
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

func findHeader(headers []string, name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, h := range headers {
		if strings.ToLower(h) == name {
			return i
		}
	}
	return -1
}

func containsField(fields []string, f string) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
