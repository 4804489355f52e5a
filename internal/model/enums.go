package model

import "fmt"

// ── 试卷袋状态 ──

// EnvelopeStatus 试卷袋生命周期状态（只能单向推进）
type EnvelopeStatus string

const (
	EnvelopeNotReceived EnvelopeStatus = "NOT_RECEIVED"
	EnvelopeReceived    EnvelopeStatus = "RECEIVED_BY_TEACHER"
	EnvelopeSubmitted   EnvelopeStatus = "SUBMITTED_TO_CONTROL"
)

var envelopeStatusLabels = map[EnvelopeStatus]string{
	EnvelopeNotReceived: "في الانتظار",
	EnvelopeReceived:    "جاري الاختبار",
	EnvelopeSubmitted:   "تم التسليم للكنترول",
}

// Valid 是否为合法状态
func (s EnvelopeStatus) Valid() bool {
	_, ok := envelopeStatusLabels[s]
	return ok
}

// Label 面向学校人员的显示文案
func (s EnvelopeStatus) Label() string {
	if l, ok := envelopeStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseEnvelopeStatus 解析状态字符串
func ParseEnvelopeStatus(s string) (EnvelopeStatus, error) {
	st := EnvelopeStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("未知的试卷袋状态: %q", s)
	}
	return st, nil
}

// ── 考勤状态 ──

// AttendanceStatus 学生考勤状态
type AttendanceStatus string

const (
	AttendancePending AttendanceStatus = "pending"
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Valid 是否为合法考勤状态
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePending, AttendancePresent, AttendanceAbsent:
		return true
	}
	return false
}

// ParseAttendanceStatus 解析考勤状态字符串
func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	st := AttendanceStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("未知的考勤状态: %q", s)
	}
	return st, nil
}

// ── 考试时段 ──

// Period 考试时段；空值表示尚未排期
type Period string

const (
	PeriodFirst  Period = "first"
	PeriodSecond Period = "second"
)

// Valid 是否为合法时段
func (p Period) Valid() bool {
	return p == PeriodFirst || p == PeriodSecond
}

// Label 时段显示文案
func (p Period) Label() string {
	switch p {
	case PeriodFirst:
		return "الفترة الأولى"
	case PeriodSecond:
		return "الفترة الثانية"
	}
	return ""
}

// ── 通知类型 ──

// NotificationType 通知类型
type NotificationType string

const (
	NotificationAlert NotificationType = "alert"
	NotificationInfo  NotificationType = "info"
)

// Valid 是否为合法通知类型
func (t NotificationType) Valid() bool {
	return t == NotificationAlert || t == NotificationInfo
}

// ── 角色 ──

// Role 登录角色
type Role string

const (
	RoleManager   Role = "MANAGER"
	RoleControl   Role = "CONTROL"
	RoleCounselor Role = "COUNSELOR"
	RoleTeacher   Role = "TEACHER"
)

// Valid 是否为合法角色
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleControl, RoleCounselor, RoleTeacher:
		return true
	}
	return false
}

// DisplayName 非教师角色登录后使用的显示名
func (r Role) DisplayName() string {
	switch r {
	case RoleManager:
		return "مدير المدرسة"
	case RoleTeacher:
		return ""
	}
	return "الموظف المسؤول"
}

// ParseRole 解析角色字符串
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("未知的角色: %q", s)
	}
	return r, nil
}
