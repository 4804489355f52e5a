package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"exam-control/internal/dto"
	"exam-control/internal/exam"
	"exam-control/internal/repository"
	"exam-control/pkg/genai"
	"exam-control/pkg/metrics"
)

// ── 智能报告文案 ──

const (
	reportSystemInstruction = `أنت مستشار تعليمي خبير في إدارة الاختبارات.
حلل البيانات المرفقة (اللجان، الغياب، حالة التسليم) وقدم تقريراً باللغة العربية يتميز بـ:
1. ملخص تنفيذي لسير العملية.
2. تحليل دقيق لحالات الغياب (النسب المئوية واللجان الأكثر تأثراً).
3. رصد لمدى سرعة إنجاز اللجان (بناءً على حالة المظاريف).
4. توصيات عملية فورية للمدير وللمرشد الطلابي.
استخدم تنسيقاً واضحاً ومباشراً.`

	reportPromptPrefix = "بناءً على البيانات التالية لسير الاختبارات اليوم، قم بتوليد تقرير تحليلي شامل: "
	reportNotePrefix   = "\nملاحظات إضافية: "

	ReportNoData      = "لا توجد بيانات كافية حالياً لإنشاء تقرير. يرجى التأكد من جدولة اللجان وبدء الاختبارات."
	ReportUnavailable = "عذراً، تعذر الاتصال بخدمة الذكاء الاصطناعي حالياً. يرجى التأكد من مفتاح API Key الخاص بك."
	ReportEmpty       = "حدث خطأ في معالجة التقرير الذكي."
)

// TextGenerator 文本生成服务（Gemini 客户端实现）
type TextGenerator interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// ReportService 统计与报告业务接口
type ReportService interface {
	Stats(ctx context.Context) (*exam.Stats, error)
	Absences(ctx context.Context) ([]exam.Absence, error)
	// SmartReport 汇总考勤后交由文本生成服务撰写报告；外部服务失败时返回兜底文案而非错误
	SmartReport(ctx context.Context, req *dto.SmartReportRequest) (*dto.SmartReportResponse, error)
}

type reportService struct {
	repo   *repository.Repository
	gen    TextGenerator
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, gen TextGenerator, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, gen: gen, logger: logger}
}

func (s *reportService) Stats(ctx context.Context) (*exam.Stats, error) {
	envs, err := s.repo.Envelope.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询试卷袋失败", zap.Error(err))
		return nil, err
	}
	st := exam.ComputeStats(envs)
	return &st, nil
}

func (s *reportService) Absences(ctx context.Context) ([]exam.Absence, error) {
	envs, err := s.repo.Envelope.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询试卷袋失败", zap.Error(err))
		return nil, err
	}
	list := exam.Absences(envs)
	if list == nil {
		list = []exam.Absence{}
	}
	return list, nil
}

// ────────────────────── SmartReport ──────────────────────

func (s *reportService) SmartReport(ctx context.Context, req *dto.SmartReportRequest) (*dto.SmartReportResponse, error) {
	envs, err := s.repo.Envelope.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询试卷袋失败", zap.Error(err))
		return nil, err
	}

	summary := exam.Aggregate(envs)
	if len(summary) == 0 {
		metrics.SmartReports.WithLabelValues("no_data").Inc()
		return &dto.SmartReportResponse{Report: ReportNoData}, nil
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	prompt := reportPromptPrefix + string(data)
	if req != nil && strings.TrimSpace(req.Note) != "" {
		prompt += reportNotePrefix + strings.TrimSpace(req.Note)
	}

	text, err := s.gen.Generate(ctx, reportSystemInstruction, prompt)
	switch {
	case err == nil:
		metrics.SmartReports.WithLabelValues("ok").Inc()
		return &dto.SmartReportResponse{Report: text, Generated: true}, nil
	case errors.Is(err, genai.ErrEmptyResponse):
		metrics.SmartReports.WithLabelValues("empty").Inc()
		return &dto.SmartReportResponse{Report: ReportEmpty}, nil
	default:
		s.logger.Warn("智能报告生成失败", zap.Int("envelopes", len(summary)), zap.Error(err))
		metrics.SmartReports.WithLabelValues("error").Inc()
		return &dto.SmartReportResponse{Report: ReportUnavailable}, nil
	}
}
