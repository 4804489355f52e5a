package model

// Teacher 监考教师表 — 对应 teachers
// QRCode 为胸牌二维码内容（T_ + 教师编号），扫码即可登录
type Teacher struct {
	TeacherID string `gorm:"type:varchar(50);primaryKey"           json:"id"`
	Name      string `gorm:"type:varchar(200);not null"            json:"name"`
	Phone     string `gorm:"type:varchar(50);not null;default:''"  json:"phone"`
	QRCode    string `gorm:"type:varchar(100);not null;default:''" json:"qr_code"`
	BaseModel
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }
