package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"exam-control/internal/dto"
)

// buildXLSX 在内存中生成单 Sheet 的 Excel，第一行为表头
func buildXLSX(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			name, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue("Sheet1", name, v); err != nil {
				t.Fatalf("写入单元格失败: %v", err)
			}
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("生成 Excel 失败: %v", err)
	}
	return buf
}

func setupTestImportService() (ImportService, *mockRepos, *recordingFeed) {
	repo, mocks := newMockRepos()
	feed := &recordingFeed{}
	return NewImportService(repo, feed, 100, zap.NewNop()), mocks, feed
}

// ── Preview ──

func TestImportService_Preview_SuggestsMapping(t *testing.T) {
	svc, _, _ := setupTestImportService()
	file := buildXLSX(t, [][]interface{}{
		{"رقم الجلوس", "اسم الطالب", "الصف", "الفصل", "ملاحظات"},
		{"1001", "أحمد علي", "ثالث", "أ", ""},
		{"", "", "", "", ""},
		{"1002", "سعد محمد", "ثالث", "ب", "منقول"},
	})

	p, err := svc.Preview(context.Background(), dto.ImportStudents, file)
	if err != nil {
		t.Fatalf("Preview 应成功: %v", err)
	}
	if p.RowCount != 2 {
		t.Errorf("空行应被跳过，期望 2 行，实际 %d", p.RowCount)
	}
	if p.Mapping["id"] != "رقم الجلوس" || p.Mapping["name"] != "اسم الطالب" || p.Mapping["classroom"] != "الفصل" {
		t.Errorf("建议映射不符: %v", p.Mapping)
	}
	if _, ok := p.Mapping["phone"]; ok {
		t.Error("没有手机列时不应给出 phone 映射")
	}
}

func TestImportService_Preview_Errors(t *testing.T) {
	svc, _, _ := setupTestImportService()
	ctx := context.Background()

	if _, err := svc.Preview(ctx, "rooms", buildXLSX(t, [][]interface{}{{"a"}, {"b"}})); !errors.Is(err, ErrImportUnknownKind) {
		t.Errorf("期望 ErrImportUnknownKind，实际: %v", err)
	}
	if _, err := svc.Preview(ctx, dto.ImportStudents, strings.NewReader("not an xlsx")); !errors.Is(err, ErrImportBadFile) {
		t.Errorf("期望 ErrImportBadFile，实际: %v", err)
	}
	if _, err := svc.Preview(ctx, dto.ImportStudents, buildXLSX(t, [][]interface{}{{"رقم الجلوس", "اسم الطالب"}})); !errors.Is(err, ErrImportNoData) {
		t.Errorf("只有表头时期望 ErrImportNoData，实际: %v", err)
	}
}

// ── Import: students ──

func TestImportService_ImportStudents_KeepsOrderAndSkipsDuplicates(t *testing.T) {
	svc, mocks, feed := setupTestImportService()
	ctx := context.Background()
	mocks.student.BatchUpsert(ctx, makeRoster(2))

	file := buildXLSX(t, [][]interface{}{
		{"ID", "Name", "Phone"},
		{"2001", "طالب أ", "0500000001"},
		{"2002", "", "0500000002"},
		{"2001", "طالب مكرر", ""},
		{2003, "طالب ب", ""},
	})

	res, err := svc.Import(ctx, dto.ImportStudents, file, nil)
	if err != nil {
		t.Fatalf("Import 应成功: %v", err)
	}
	if res.Total != 4 || res.Imported != 2 || res.Skipped != 2 {
		t.Errorf("导入统计不符: %+v", res)
	}

	ordered, _ := mocks.student.ListOrdered(ctx)
	if len(ordered) != 4 || ordered[2].StudentID != "2001" || ordered[3].StudentID != "2003" {
		t.Fatalf("新学生应排在已有学生之后: %+v", ordered)
	}
	if ordered[2].ImportOrder != 3 || ordered[2].Phone != "0500000001" {
		t.Errorf("导入序号或字段不符: %+v", ordered[2])
	}
	if feed.kinds() != EventStudents {
		t.Errorf("应发布学生变更，实际 %q", feed.kinds())
	}
}

func TestImportService_ImportStudents_CustomMapping(t *testing.T) {
	svc, mocks, _ := setupTestImportService()
	file := buildXLSX(t, [][]interface{}{
		{"الرقم", "الطالب/ة"},
		{"3001", "نورة"},
	})
	ctx := context.Background()

	if _, err := svc.Import(ctx, dto.ImportStudents, file, nil); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("无法识别表头时期望 ErrImportBadHeader，实际: %v", err)
	}

	file = buildXLSX(t, [][]interface{}{
		{"الرقم", "الطالب/ة"},
		{"3001", "نورة"},
	})
	res, err := svc.Import(ctx, dto.ImportStudents, file, map[string]string{"id": "الرقم", "name": "الطالب/ة"})
	if err != nil {
		t.Fatalf("显式映射后应成功: %v", err)
	}
	if res.Imported != 1 || mocks.student.students["3001"].Name != "نورة" {
		t.Errorf("导入结果不符: %+v", res)
	}

	file = buildXLSX(t, [][]interface{}{{"الرقم", "الطالب/ة"}, {"3002", "هند"}})
	if _, err := svc.Import(ctx, dto.ImportStudents, file, map[string]string{"id": "غير موجود"}); !errors.Is(err, ErrImportBadMapping) {
		t.Errorf("映射到不存在的表头时期望 ErrImportBadMapping，实际: %v", err)
	}
}

func TestImportService_RowLimit(t *testing.T) {
	repo, _ := newMockRepos()
	svc := NewImportService(repo, &recordingFeed{}, 2, zap.NewNop())
	file := buildXLSX(t, [][]interface{}{
		{"id", "name"}, {"1", "a"}, {"2", "b"}, {"3", "c"},
	})

	if _, err := svc.Import(context.Background(), dto.ImportStudents, file, nil); !errors.Is(err, ErrImportTooManyRows) {
		t.Errorf("期望 ErrImportTooManyRows，实际: %v", err)
	}
}

// ── Import: teachers ──

func TestImportService_ImportTeachers(t *testing.T) {
	svc, mocks, _ := setupTestImportService()
	file := buildXLSX(t, [][]interface{}{
		{"رقم المعلم", "اسم المعلم", "الجوال"},
		{"T01", "أحمد", "0501"},
		{"T02", "خالد", ""},
		{"T01", "أحمد سالم", "0509"},
	})

	res, err := svc.Import(context.Background(), dto.ImportTeachers, file, nil)
	if err != nil {
		t.Fatalf("Import 应成功: %v", err)
	}
	if res.Imported != 2 || res.Skipped != 1 {
		t.Errorf("导入统计不符: %+v", res)
	}
	t1 := mocks.teacher.teachers["T01"]
	if t1 == nil || t1.Name != "أحمد سالم" || t1.QRCode != "T_T01" {
		t.Errorf("重复编号应以最后一行为准并生成胸牌码: %+v", t1)
	}
}

// ── Import: templates ──

func TestImportService_ImportTemplates_GroupsByCommittee(t *testing.T) {
	svc, mocks, _ := setupTestImportService()
	file := buildXLSX(t, [][]interface{}{
		{"رقم الجلوس", "اسم الطالب", "اللجنة", "المقر"},
		{"1001", "أ", 2, "قاعة الشرق"},
		{"1002", "ب", "1", ""},
		{"1003", "ج", "2.0", "تجاهل"},
		{"1004", "د", "", ""},
	})

	res, err := svc.Import(context.Background(), dto.ImportTemplates, file, nil)
	if err != nil {
		t.Fatalf("Import 应成功: %v", err)
	}
	if res.Imported != 4 {
		t.Errorf("期望导入 4 人，实际 %d", res.Imported)
	}

	tpls, _ := mocks.envelope.ListTemplates(context.Background())
	if len(tpls) != 2 {
		t.Fatalf("期望 2 个模板（1 与 2），实际 %d", len(tpls))
	}
	byID := map[string]int{}
	for i, tpl := range tpls {
		byID[tpl.EnvelopeID] = i
	}
	two := tpls[byID["TEMP_2"]]
	if len(two.Students) != 2 || two.Venue != "قاعة الشرق" {
		t.Errorf("考场 2 模板不符: %d 人, 地点 %s", len(two.Students), two.Venue)
	}
	one := tpls[byID["TEMP_1"]]
	if len(one.Students) != 2 || one.Venue != defaultTemplateVenue || one.Subject != templateSubject {
		t.Errorf("缺省考场应归入 1 且使用默认地点: %+v", one)
	}
}
