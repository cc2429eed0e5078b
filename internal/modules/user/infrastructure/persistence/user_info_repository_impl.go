package persistence

import (
	"context"
	"errors"

	"OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/internal/modules/user/domain/repository"

	"gorm.io/gorm"
)

type userInfoRepositoryImpl struct {
	db *gorm.DB
}

func NewUserInfoRepository(db *gorm.DB) repository.UserInfoRepository {
	return &userInfoRepositoryImpl{db: db}
}

func (r *userInfoRepositoryImpl) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entity.UserInfo{}).
		Where("status = ? AND approved = ?", 0, true)
}

func (r *userInfoRepositoryImpl) GetByUUID(ctx context.Context, uuid string) (*entity.UserInfo, error) {
	var user entity.UserInfo
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).Take(&user).Error
	if err == nil {
		return &user, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

func (r *userInfoRepositoryImpl) GetByUUIDs(ctx context.Context, uuids []string) ([]entity.UserInfo, error) {
	if len(uuids) == 0 {
		return []entity.UserInfo{}, nil
	}
	var users []entity.UserInfo
	err := r.db.WithContext(ctx).Where("uuid IN ?", uuids).Find(&users).Error
	return users, err
}

func (r *userInfoRepositoryImpl) ListActiveByDepartment(ctx context.Context, departmentID string) ([]entity.UserInfo, error) {
	if departmentID == "" {
		return []entity.UserInfo{}, nil
	}
	var users []entity.UserInfo
	err := r.active(ctx).Where("department_id = ?", departmentID).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *userInfoRepositoryImpl) ListActiveByOffice(ctx context.Context, officeID string) ([]entity.UserInfo, error) {
	if officeID == "" {
		return []entity.UserInfo{}, nil
	}
	var users []entity.UserInfo
	err := r.active(ctx).Where("office_id = ?", officeID).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *userInfoRepositoryImpl) ListLeads(ctx context.Context, placement entity.Placement) ([]entity.UserInfo, error) {
	cond := r.db.Session(&gorm.Session{NewDB: true}).Where("1 = 0")
	if placement.DepartmentID != "" {
		cond = cond.Or("scope_breadth = ? AND department_id = ?", entity.BreadthDepartment, placement.DepartmentID)
	}
	if placement.OfficeID != "" {
		cond = cond.Or("scope_breadth = ? AND office_id = ?", entity.BreadthOffice, placement.OfficeID)
	}
	if placement.DivisionID != "" {
		cond = cond.Or("scope_breadth = ? AND division_id = ?", entity.BreadthDivision, placement.DivisionID)
	}
	var users []entity.UserInfo
	err := r.active(ctx).Where(cond).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *userInfoRepositoryImpl) ListAdmins(ctx context.Context) ([]entity.UserInfo, error) {
	var users []entity.UserInfo
	err := r.active(ctx).Where("role = ?", entity.RoleAdmin).Order("id ASC").Find(&users).Error
	return users, err
}
