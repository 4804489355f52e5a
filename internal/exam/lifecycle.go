package exam

import (
	"errors"
	"time"

	"exam-control/internal/model"
)

var (
	ErrInvalidTransition = errors.New("试卷袋状态不允许该操作")
	ErrAlreadySubmitted  = errors.New("试卷袋已交回考务，不可再开启")
	ErrNotInProgress     = errors.New("试卷袋不在考试进行中，无法修改考勤")
	ErrStudentNotFound   = errors.New("该学生不在此试卷袋中")
	ErrInvalidAttendance = errors.New("考勤只能标记为出席或缺席")
	ErrTemplateEnvelope  = errors.New("模板试卷袋不参与考试流程")
)

// transitions 状态机：只允许单向推进，没有回退边
var transitions = map[model.EnvelopeStatus]model.EnvelopeStatus{
	model.EnvelopeNotReceived: model.EnvelopeReceived,
	model.EnvelopeReceived:    model.EnvelopeSubmitted,
}

// CanTransition 判断 from → to 是否为合法迁移
func CanTransition(from, to model.EnvelopeStatus) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// Proctor 领取试卷袋的监考人
type Proctor struct {
	ID   string
	Name string
}

// OpenResult 开启试卷袋的结果
type OpenResult struct {
	Transitioned bool // 本次是否从 NOT_RECEIVED 进入 RECEIVED_BY_TEACHER
	Initialized  int  // 本次由 pending 自动置为 present 的学生数
}

// Open 监考人开启试卷袋
//
// NOT_RECEIVED 时迁移到 RECEIVED_BY_TEACHER 并记录监考人（仅首次写入）；
// 已在进行中时状态不变；两种情况都会执行幂等的自动点名。
func Open(env *model.ExamEnvelope, p Proctor, now time.Time) (OpenResult, error) {
	var res OpenResult
	if env.IsTemplate() {
		return res, ErrTemplateEnvelope
	}

	switch env.Status {
	case model.EnvelopeSubmitted:
		return res, ErrAlreadySubmitted
	case model.EnvelopeNotReceived:
		env.Status = model.EnvelopeReceived
		env.ReceivedAt = &now
		if env.TeacherID == nil && p.ID != "" {
			id, name := p.ID, p.Name
			env.TeacherID = &id
			env.TeacherName = &name
		}
		res.Transitioned = true
	case model.EnvelopeReceived:
	default:
		return res, ErrInvalidTransition
	}

	res.Initialized = AutoInitAttendance(env.Students)
	return res, nil
}

// Submit 交回考务：仅允许从 RECEIVED_BY_TEACHER 迁移
func Submit(env *model.ExamEnvelope, now time.Time) error {
	if env.IsTemplate() {
		return ErrTemplateEnvelope
	}
	if !CanTransition(env.Status, model.EnvelopeSubmitted) {
		return ErrInvalidTransition
	}
	env.Status = model.EnvelopeSubmitted
	env.SubmittedAt = &now
	return nil
}

// AutoInitAttendance 将所有 pending 学生置为 present，不触碰 absent
// 返回被修改的人数；对同一名单重复调用结果不变
func AutoInitAttendance(students []model.Student) int {
	n := 0
	for i := range students {
		if students[i].Status == model.AttendancePending || students[i].Status == "" {
			students[i].Status = model.AttendancePresent
			n++
		}
	}
	return n
}

// SetAttendance 显式设置学生考勤，target 只能是 present 或 absent
// 返回更新后的学生副本
func SetAttendance(env *model.ExamEnvelope, studentID string, target model.AttendanceStatus) (model.Student, error) {
	if target != model.AttendancePresent && target != model.AttendanceAbsent {
		return model.Student{}, ErrInvalidAttendance
	}
	if env.Status != model.EnvelopeReceived {
		return model.Student{}, ErrNotInProgress
	}
	idx := env.FindStudent(studentID)
	if idx < 0 {
		return model.Student{}, ErrStudentNotFound
	}
	env.Students[idx].Status = target
	return env.Students[idx], nil
}

// ToggleAttendance present → absent，其余（absent/pending）→ present
func ToggleAttendance(env *model.ExamEnvelope, studentID string) (model.Student, error) {
	idx := env.FindStudent(studentID)
	if idx < 0 {
		if env.Status != model.EnvelopeReceived {
			return model.Student{}, ErrNotInProgress
		}
		return model.Student{}, ErrStudentNotFound
	}
	target := model.AttendancePresent
	if env.Students[idx].Status == model.AttendancePresent {
		target = model.AttendanceAbsent
	}
	return SetAttendance(env, studentID, target)
}
