package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"exam-control/internal/exam"
	"exam-control/internal/model"
	"exam-control/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoEnvelopes  = errors.New("暂无可导出的试卷袋")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 二维码参数
const (
	envelopeQRPrefix = "QR_"
	qrSize           = 256
)

// attendanceLabels 名单中的考勤文案
var attendanceLabels = map[model.AttendanceStatus]string{
	model.AttendancePending: "لم يُرصد",
	model.AttendancePresent: "حاضر",
	model.AttendanceAbsent:  "غائب",
}

// ExportService 导出业务接口
//
// 设计说明：
//   - 名单导出为 Excel：每个试卷袋一个 Sheet，末尾附缺席汇总 Sheet
//   - 日程导出为 iCalendar：可按监考教师过滤
//   - 二维码为 PNG：试卷袋二维码内容为 QR_{考场}，教师胸牌为 T_{编号}
type ExportService interface {
	ExportRoster(ctx context.Context) (*bytes.Buffer, string, error)
	ExportCalendar(ctx context.Context, teacherID string) ([]byte, string, error)
	EnvelopeQRCode(ctx context.Context, id string) ([]byte, error)
	TeacherQRCode(ctx context.Context, id string) ([]byte, error)
}

type exportService struct {
	repo    *repository.Repository
	baseURL string
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, baseURL string, loc *time.Location, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// ═══════════════════════════════════════════════════════════
// ExportRoster — 导出考场名单为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 每个试卷袋一个 Sheet（以试卷袋 ID 命名，按考场编号排序）
//   - 第 1 行：لجنة {考场} | 科目 | 日期 时间 | 地点
//   - 第 2 行表头：رقم الجلوس | اسم الطالب | الصف | الفصل | رقم الجوال | الحالة
//   - 最后一个 Sheet "الغياب"：全部缺席学生

func (s *exportService) ExportRoster(ctx context.Context) (*bytes.Buffer, string, error) {
	envs, err := s.repo.Envelope.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询试卷袋失败", zap.Error(err))
		return nil, "", err
	}
	if len(envs) == 0 {
		return nil, "", ErrExportNoEnvelopes
	}
	exam.SortByCommittee(envs)

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
	})

	used := make(map[string]bool)
	for i := range envs {
		e := &envs[i]
		sheet := uniqueSheetName(e.EnvelopeID, used)
		if _, err := f.NewSheet(sheet); err != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("sheet", sheet), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: boolPtr(true)})
		f.SetColWidth(sheet, "A", "A", 14)
		f.SetColWidth(sheet, "B", "B", 32)
		f.SetColWidth(sheet, "C", "F", 14)

		f.SetCellValue(sheet, "A1", fmt.Sprintf("لجنة %s", e.Committee))
		f.SetCellValue(sheet, "B1", e.Subject)
		f.SetCellValue(sheet, "C1", scheduleText(e))
		f.SetCellValue(sheet, "D1", e.Venue)
		f.SetCellStyle(sheet, "A1", "D1", titleStyle)

		writeRow(f, sheet, 2, []interface{}{"رقم الجلوس", "اسم الطالب", "الصف", "الفصل", "رقم الجوال", "الحالة"})
		f.SetCellStyle(sheet, "A2", "F2", headerStyle)

		for j, st := range e.Students {
			writeRow(f, sheet, 3+j, []interface{}{
				st.StudentID, st.Name, st.Grade, st.Classroom, st.Phone, attendanceLabels[st.Status],
			})
		}
	}

	// 缺席汇总
	absSheet := uniqueSheetName("الغياب", used)
	f.NewSheet(absSheet)
	f.SetSheetView(absSheet, 0, &excelize.ViewOptions{RightToLeft: boolPtr(true)})
	f.SetColWidth(absSheet, "B", "B", 32)
	writeRow(f, absSheet, 1, []interface{}{"رقم الجلوس", "اسم الطالب", "الصف", "الفصل", "رقم الجوال", "اللجنة", "المادة", "المقر"})
	f.SetCellStyle(absSheet, "A1", "H1", headerStyle)
	for j, a := range exam.Absences(envs) {
		writeRow(f, absSheet, 2+j, []interface{}{
			a.StudentID, a.Name, a.Grade, a.Classroom, a.Phone, a.Committee, a.Subject, a.Venue,
		})
	}

	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("كشوف_اللجان_%s.xlsx", s.now().In(s.loc).Format("2006-01-02"))
	return buf, filename, nil
}

// ────────────────────── 二维码 ──────────────────────

func (s *exportService) EnvelopeQRCode(ctx context.Context, id string) ([]byte, error) {
	env, err := s.repo.Envelope.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnvelopeNotFound
		}
		s.logger.Error("查询试卷袋失败", zap.Error(err))
		return nil, err
	}
	return s.encodeQR(envelopeQRPrefix + env.Committee)
}

func (s *exportService) TeacherQRCode(ctx context.Context, id string) ([]byte, error) {
	t, err := s.repo.Teacher.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	content := t.QRCode
	if content == "" {
		content = teacherQRPrefix + t.TeacherID
	}
	return s.encodeQR(content)
}

func (s *exportService) encodeQR(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		s.logger.Error("生成二维码失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return png, nil
}

// ── 辅助函数 ──

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	for i, v := range values {
		f.SetCellValue(sheet, cell(colName(i), row), v)
	}
}

// uniqueSheetName Sheet 名最长 31 字符且不可重复
func uniqueSheetName(name string, used map[string]bool) string {
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	base := string(r)
	candidate := base
	for n := 2; used[candidate]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		br := []rune(base)
		if len(br)+len(suffix) > 31 {
			br = br[:31-len(suffix)]
		}
		candidate = string(br) + suffix
	}
	used[candidate] = true
	return candidate
}

func scheduleText(e *model.ExamEnvelope) string {
	if e.ExamDate == nil {
		return "غير مجدول"
	}
	return fmt.Sprintf("%s %s-%s", e.ExamDate.Format("2006-01-02"), e.StartTime, e.EndTime)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func boolPtr(b bool) *bool { return &b }
