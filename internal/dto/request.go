package dto

// ── 导入模块 ──

// ImportKind 导入类型
const (
	ImportTeachers  = "teachers"
	ImportStudents  = "students"
	ImportTemplates = "templates"
)

// ImportPreviewRequest 导入预览参数（文件以 multipart 字段 file 上传）
type ImportPreviewRequest struct {
	Kind string `form:"kind" binding:"required,oneof=teachers students templates"`
}

// ImportRequest 导入参数：mapping 为 字段 → 表头 的映射（JSON 字符串，随表单提交）
// 未提供的字段使用表头启发式匹配
type ImportRequest struct {
	Mapping string `form:"mapping"`
}

// ── 分配 / 危险操作确认 ──

// ConfirmQuery 破坏性操作的确认参数
type ConfirmQuery struct {
	Confirm bool `form:"confirm"`
}

// DistributeRequest 自动分配考场
type DistributeRequest struct {
	GroupSize int    `json:"group_size" binding:"omitempty,min=1,max=500"`
	Date      string `json:"date"       binding:"omitempty,isodate"`
}

// ── 日程规划 ──

// SetStartDateRequest 设置开考日期
type SetStartDateRequest struct {
	StartDate string `json:"start_date" binding:"required,isodate"`
}

// UpdateSessionRequest 修改单个场次（字段均为可选）
type UpdateSessionRequest struct {
	StartTime *string `json:"start_time" binding:"omitempty,clock"`
	EndTime   *string `json:"end_time"   binding:"omitempty,clock"`
	Subject   *string `json:"subject"    binding:"omitempty,max=200"`
	IsActive  *bool   `json:"is_active"`
}

// ResetSessionsRequest 按天数重建默认场次
type ResetSessionsRequest struct {
	Days int `json:"days" binding:"omitempty,min=1,max=30"`
}

// ApplySessionRequest 将场次应用到全部现有考场；为空时使用第一个场次
type ApplySessionRequest struct {
	SessionID string `json:"session_id" binding:"omitempty,max=50"`
}

// ── 试卷袋 ──

// EnvelopeListQuery 试卷袋列表筛选
type EnvelopeListQuery struct {
	Status    string `form:"status"    binding:"omitempty,oneof=NOT_RECEIVED RECEIVED_BY_TEACHER SUBMITTED_TO_CONTROL"`
	Committee string `form:"committee" binding:"omitempty,max=20"`
	Date      string `form:"date"      binding:"omitempty,isodate"`
}

// OpenCommitteeRequest 监考人按考场编号（扫码或选择）开启试卷袋
type OpenCommitteeRequest struct {
	Committee string `json:"committee" binding:"required,max=20"`
	Date      string `json:"date"      binding:"omitempty,isodate"`
}

// SetAttendanceRequest 显式设置学生考勤
type SetAttendanceRequest struct {
	Status string `json:"status" binding:"required,oneof=present absent"`
}

// ── 报表 ──

// SmartReportRequest 智能报告：可附带额外说明
type SmartReportRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// [自证通过] internal/dto/request.go
