package entity

import "time"

// UserInfo 由认证服务维护，本服务只读
type UserInfo struct {
	Id           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid         string    `gorm:"column:uuid;type:char(36);uniqueIndex;not null"`
	Username     string    `gorm:"column:username;type:varchar(64);not null"`
	Nickname     string    `gorm:"column:nickname;type:varchar(64)"`
	Email        string    `gorm:"column:email;type:varchar(128)"`
	Role         string    `gorm:"column:role;type:varchar(20);not null;default:user"`
	Position     string    `gorm:"column:position;type:varchar(64)"`
	ScopeBreadth string    `gorm:"column:scope_breadth;type:varchar(20)"`
	DepartmentId string    `gorm:"column:department_id;type:varchar(36);index"`
	OfficeId     string    `gorm:"column:office_id;type:varchar(36);index"`
	DivisionId   string    `gorm:"column:division_id;type:varchar(36);index"`
	Status       int8      `gorm:"column:status;type:tinyint;not null;default:0"`
	Approved     bool      `gorm:"column:approved;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (UserInfo) TableName() string {
	return "user_info"
}

// DisplayName 昵称为空时回退到用户名
func (u UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// Actor 返回该用户对应的操作者身份
func (u UserInfo) Actor() Actor {
	return Actor{
		UserID:       u.Uuid,
		Role:         u.Role,
		Position:     u.Position,
		Breadth:      u.ScopeBreadth,
		DepartmentID: u.DepartmentId,
		OfficeID:     u.OfficeId,
		DivisionID:   u.DivisionId,
	}
}
