// Package metrics 考务业务与 HTTP 指标（Prometheus 默认注册表，/metrics 暴露）
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests 按路由与状态码统计请求数
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exam_control",
		Name:      "http_requests_total",
		Help:      "HTTP 请求总数",
	}, []string{"method", "route", "status"})

	// HTTPDuration 请求耗时分布
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exam_control",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP 请求耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// EnvelopeTransitions 试卷袋状态迁移次数（按目标状态）
	EnvelopeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exam_control",
		Name:      "envelope_transitions_total",
		Help:      "试卷袋状态迁移次数",
	}, []string{"to"})

	// AbsencesMarked 标记缺席次数
	AbsencesMarked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exam_control",
		Name:      "absences_marked_total",
		Help:      "标记缺席次数",
	})

	// ImportedRows 表格导入行数（按类型与结果）
	ImportedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exam_control",
		Name:      "imported_rows_total",
		Help:      "表格导入行数",
	}, []string{"kind", "result"})

	// SmartReports 智能报告调用结果
	SmartReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exam_control",
		Name:      "smart_reports_total",
		Help:      "智能报告生成次数",
	}, []string{"result"})
)
