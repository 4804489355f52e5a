package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"exam-control/internal/exam"
	"exam-control/internal/model"
)

func setupTestExportService(t *testing.T) (ExportService, *mockRepos) {
	t.Helper()
	repo, mocks := newMockRepos()
	svc := NewExportService(repo, "https://exams.example.edu/", time.UTC, zap.NewNop()).(*exportService)
	svc.now = func() time.Time { return time.Date(2025, 12, 26, 8, 0, 0, 0, time.UTC) }

	envs, err := exam.Distribute(makeRoster(25), 20, testDay)
	if err != nil {
		t.Fatalf("Distribute 应成功: %v", err)
	}
	owner, name := "T01", "أحمد"
	envs[0].TeacherID, envs[0].TeacherName = &owner, &name
	envs[0].Status = model.EnvelopeReceived
	for i := range envs[0].Students {
		envs[0].Students[i].Status = model.AttendancePresent
	}
	envs[0].Students[1].Status = model.AttendanceAbsent
	mocks.envelope.put(envs...)
	mocks.teacher.teachers["T01"] = &model.Teacher{TeacherID: "T01", Name: name, QRCode: "T_T01"}
	mocks.teacher.teachers["T02"] = &model.Teacher{TeacherID: "T02", Name: "خالد"}
	return svc, mocks
}

// ── ExportRoster ──

func TestExportService_ExportRoster(t *testing.T) {
	svc, _ := setupTestExportService(t)

	buf, filename, err := svc.ExportRoster(context.Background())
	if err != nil {
		t.Fatalf("ExportRoster 应成功: %v", err)
	}
	if filename != "كشوف_اللجان_2025-12-26.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出结果应为合法 xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != "COM_1" || sheets[2] != "الغياب" {
		t.Fatalf("Sheet 列表不符: %v", sheets)
	}
	title, _ := f.GetCellValue("COM_1", "A1")
	if title != "لجنة 1" {
		t.Errorf("标题行不符: %s", title)
	}
	status, _ := f.GetCellValue("COM_1", "F4")
	if status != "غائب" {
		t.Errorf("第 2 名学生应为缺席，实际 %s", status)
	}
	rows, _ := f.GetRows("COM_2")
	if len(rows) != 2+5 {
		t.Errorf("考场 2 应有 5 名学生，实际 %d 行", len(rows))
	}
	absent, _ := f.GetRows("الغياب")
	if len(absent) != 2 || absent[1][0] != "1002" {
		t.Errorf("缺席汇总不符: %v", absent)
	}
}

func TestExportService_ExportRoster_Empty(t *testing.T) {
	repo, _ := newMockRepos()
	svc := NewExportService(repo, "", nil, zap.NewNop())

	if _, _, err := svc.ExportRoster(context.Background()); !errors.Is(err, ErrExportNoEnvelopes) {
		t.Errorf("期望 ErrExportNoEnvelopes，实际: %v", err)
	}
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("x", 40)

	a := uniqueSheetName(long, used)
	b := uniqueSheetName(long, used)
	if len([]rune(a)) != 31 || len([]rune(b)) > 31 || a == b {
		t.Errorf("Sheet 名应截断且不重复: %q %q", a, b)
	}
}

// ── ExportCalendar ──

func TestExportService_ExportCalendar_All(t *testing.T) {
	svc, _ := setupTestExportService(t)

	data, filename, err := svc.ExportCalendar(context.Background(), "")
	if err != nil {
		t.Fatalf("ExportCalendar 应成功: %v", err)
	}
	if filename != "exam-schedule.ics" {
		t.Errorf("文件名不符: %s", filename)
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("导出结果应为合法 iCalendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("期望 2 个事件，实际 %d", len(events))
	}
	if events[0].Id() != "COM_1" {
		t.Errorf("事件应按考场排序且以试卷袋 ID 为 UID，实际 %s", events[0].Id())
	}

	text := string(data)
	for _, want := range []string{
		"DTSTART:20251226T073000Z",
		"DTEND:20251226T100000Z",
		"https://exams.example.edu/api/v1/envelopes/COM_1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("日历缺少 %q", want)
		}
	}
}

func TestExportService_ExportCalendar_ByTeacher(t *testing.T) {
	svc, _ := setupTestExportService(t)
	ctx := context.Background()

	data, filename, err := svc.ExportCalendar(ctx, "T01")
	if err != nil {
		t.Fatalf("按教师导出应成功: %v", err)
	}
	if filename != "exam-schedule-T01.ics" {
		t.Errorf("文件名不符: %s", filename)
	}
	cal, _ := ics.ParseCalendar(bytes.NewReader(data))
	if len(cal.Events()) != 1 {
		t.Errorf("T01 只领取了 1 个试卷袋，实际 %d", len(cal.Events()))
	}

	if _, _, err := svc.ExportCalendar(ctx, "T02"); !errors.Is(err, ErrExportNoEnvelopes) {
		t.Errorf("没有领取记录时期望 ErrExportNoEnvelopes，实际: %v", err)
	}
	if _, _, err := svc.ExportCalendar(ctx, "T404"); !errors.Is(err, ErrTeacherNotFound) {
		t.Errorf("期望 ErrTeacherNotFound，实际: %v", err)
	}
}

func TestEnvelopeWindow(t *testing.T) {
	day := testDay
	tests := []struct {
		name       string
		start, end string
		date       *time.Time
		ok         bool
	}{
		{"正常", "07:30", "10:00", &day, true},
		{"未排期", "07:30", "10:00", nil, false},
		{"结束早于开始", "10:00", "07:30", &day, false},
		{"格式错误", "7:30", "10:00", &day, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &model.ExamEnvelope{ExamDate: tt.date, StartTime: tt.start, EndTime: tt.end}
			_, _, ok := envelopeWindow(env, time.UTC)
			if ok != tt.ok {
				t.Errorf("期望 %v，实际 %v", tt.ok, ok)
			}
		})
	}
}

// ── 二维码 ──

func TestExportService_QRCodes(t *testing.T) {
	svc, _ := setupTestExportService(t)
	ctx := context.Background()
	pngMagic := []byte("\x89PNG")

	png, err := svc.EnvelopeQRCode(ctx, "COM_2")
	if err != nil || !bytes.HasPrefix(png, pngMagic) {
		t.Errorf("试卷袋二维码应为 PNG: %v", err)
	}
	png, err = svc.TeacherQRCode(ctx, "T02")
	if err != nil || !bytes.HasPrefix(png, pngMagic) {
		t.Errorf("教师二维码应为 PNG: %v", err)
	}

	if _, err := svc.EnvelopeQRCode(ctx, "COM_404"); !errors.Is(err, ErrEnvelopeNotFound) {
		t.Errorf("期望 ErrEnvelopeNotFound，实际: %v", err)
	}
	if _, err := svc.TeacherQRCode(ctx, "T404"); !errors.Is(err, ErrTeacherNotFound) {
		t.Errorf("期望 ErrTeacherNotFound，实际: %v", err)
	}
}
