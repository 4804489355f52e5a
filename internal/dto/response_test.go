package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"exam-control/internal/model"
)

func TestNewEnvelopeResponse_Labels(t *testing.T) {
	scheduled := NewEnvelopeResponse(&model.ExamEnvelope{
		EnvelopeID: "COM_1",
		Status:     model.EnvelopeReceived,
		Period:     model.PeriodSecond,
	})
	assert.Equal(t, "جاري الاختبار", scheduled.StatusLabel)
	assert.Equal(t, "الفترة الثانية", scheduled.PeriodLabel)

	unscheduled := NewEnvelopeResponse(&model.ExamEnvelope{EnvelopeID: "COM_2", Status: model.EnvelopeNotReceived})
	assert.Empty(t, unscheduled.PeriodLabel)

	bogus := NewEnvelopeResponse(&model.ExamEnvelope{EnvelopeID: "COM_3", Period: model.Period("third")})
	assert.Empty(t, bogus.PeriodLabel)
}
