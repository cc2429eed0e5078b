package repository

import (
	"context"

	"OrgCalendar/internal/modules/user/domain/entity"
)

// UserInfoRepository 组织成员目录（只读）
type UserInfoRepository interface {
	GetByUUID(ctx context.Context, uuid string) (*entity.UserInfo, error)
	GetByUUIDs(ctx context.Context, uuids []string) ([]entity.UserInfo, error)
	// ListActiveByDepartment 部门内在职且已审核的成员
	ListActiveByDepartment(ctx context.Context, departmentID string) ([]entity.UserInfo, error)
	// ListActiveByOffice 科室内在职且已审核的成员
	ListActiveByOffice(ctx context.Context, officeID string) ([]entity.UserInfo, error)
	// ListLeads 管理范围与 placement 对应单位一致的领导
	ListLeads(ctx context.Context, placement entity.Placement) ([]entity.UserInfo, error)
	ListAdmins(ctx context.Context) ([]entity.UserInfo, error)
}
