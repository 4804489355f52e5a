package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
// 教师角色需提供教师编号（可由胸牌二维码扫描得到），其余角色无需凭据
type LoginRequest struct {
	Role      string `json:"role"       binding:"required,oneof=MANAGER CONTROL COUNSELOR TEACHER"`
	TeacherID string `json:"teacher_id" binding:"required_if=Role TEACHER,max=50"`
}

// [自证通过] internal/dto/auth.go
