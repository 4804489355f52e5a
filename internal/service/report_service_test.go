package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"exam-control/internal/dto"
	"exam-control/internal/exam"
	"exam-control/internal/model"
	"exam-control/pkg/genai"
)

// fakeGenerator 记录提示词并返回预设结果
type fakeGenerator struct {
	text   string
	err    error
	calls  int
	prompt string
	system string
}

func (g *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.calls++
	g.system, g.prompt = system, prompt
	return g.text, g.err
}

func setupTestReportService(gen TextGenerator) (ReportService, *mockRepos) {
	repo, mocks := newMockRepos()
	return NewReportService(repo, gen, zap.NewNop()), mocks
}

// seedExamDay 两个考场，一个进行中且有 2 人缺席
func seedExamDay(t *testing.T, mocks *mockRepos) {
	t.Helper()
	envs, err := exam.Distribute(makeRoster(30), 20, testDay)
	if err != nil {
		t.Fatalf("Distribute 应成功: %v", err)
	}
	envs[0].Status = model.EnvelopeReceived
	for i := range envs[0].Students {
		envs[0].Students[i].Status = model.AttendancePresent
	}
	envs[0].Students[3].Status = model.AttendanceAbsent
	envs[0].Students[8].Status = model.AttendanceAbsent
	mocks.envelope.put(envs...)
	mocks.envelope.put(model.ExamEnvelope{EnvelopeID: "TEMP_1", Committee: "1", Students: makeRoster(5)})
}

func TestReportService_Stats(t *testing.T) {
	svc, mocks := setupTestReportService(&fakeGenerator{})
	seedExamDay(t, mocks)

	st, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats 应成功: %v", err)
	}
	if st.Envelopes != 2 || st.TotalStudents != 30 {
		t.Errorf("模板不应计入统计: %+v", st)
	}
	if st.Present != 18 || st.Absent != 2 || st.Pending != 10 {
		t.Errorf("考勤分布不符: %+v", st)
	}
	if st.ByStatus[model.EnvelopeReceived] != 1 || st.ByStatus[model.EnvelopeNotReceived] != 1 {
		t.Errorf("状态分布不符: %v", st.ByStatus)
	}
}

func TestReportService_Absences(t *testing.T) {
	svc, mocks := setupTestReportService(&fakeGenerator{})

	empty, err := svc.Absences(context.Background())
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("无缺席时应返回空切片而非 nil: %v %v", empty, err)
	}

	seedExamDay(t, mocks)
	list, _ := svc.Absences(context.Background())
	if len(list) != 2 || list[0].StudentID != "1004" || list[0].Committee != "1" {
		t.Errorf("缺席名单不符: %+v", list)
	}
}

func TestReportService_SmartReport_NoData(t *testing.T) {
	gen := &fakeGenerator{text: "تقرير"}
	svc, _ := setupTestReportService(gen)

	resp, err := svc.SmartReport(context.Background(), nil)
	if err != nil {
		t.Fatalf("SmartReport 不应返回错误: %v", err)
	}
	if resp.Report != ReportNoData || resp.Generated || gen.calls != 0 {
		t.Errorf("没有试卷袋时不应调用生成服务: %+v calls=%d", resp, gen.calls)
	}
}

func TestReportService_SmartReport_PromptCarriesSummary(t *testing.T) {
	gen := &fakeGenerator{text: "ملخص تنفيذي"}
	svc, mocks := setupTestReportService(gen)
	seedExamDay(t, mocks)

	resp, err := svc.SmartReport(context.Background(), &dto.SmartReportRequest{Note: " ركز على الغياب "})
	if err != nil {
		t.Fatalf("SmartReport 应成功: %v", err)
	}
	if !resp.Generated || resp.Report != "ملخص تنفيذي" {
		t.Errorf("应返回生成的报告: %+v", resp)
	}
	if !strings.HasPrefix(gen.prompt, reportPromptPrefix) {
		t.Error("提示词应以固定前缀开头")
	}
	if !strings.Contains(gen.prompt, `"absentCount":2`) {
		t.Errorf("提示词应包含考场汇总: %s", gen.prompt)
	}
	if !strings.HasSuffix(gen.prompt, reportNotePrefix+"ركز على الغياب") {
		t.Error("附加说明应追加在提示词末尾")
	}
	if gen.system != reportSystemInstruction {
		t.Error("应携带系统指令")
	}
}

func TestReportService_SmartReport_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"空响应", genai.ErrEmptyResponse, ReportEmpty},
		{"服务不可用", errors.New("connection refused"), ReportUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mocks := setupTestReportService(&fakeGenerator{err: tt.err})
			seedExamDay(t, mocks)

			resp, err := svc.SmartReport(context.Background(), nil)
			if err != nil {
				t.Fatalf("生成失败时不应返回错误: %v", err)
			}
			if resp.Report != tt.want || resp.Generated {
				t.Errorf("期望兜底文案 %q，实际 %+v", tt.want, resp)
			}
		})
	}
}
