package service

import (
	"context"
	"time"

	"OrgCalendar/internal/modules/user/application/dto/respond"
	"OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/internal/modules/user/domain/repository"
	"OrgCalendar/pkg/xerr"
	"OrgCalendar/pkg/zlog"
)

type UserInfoService interface {
	// Me 目录中没有记录时按 token 中的身份返回
	Me(ctx context.Context, a entity.Actor) (*respond.UserInfoRespond, error)
}

type userInfoServiceImpl struct {
	repo repository.UserInfoRepository
}

func NewUserInfoService(repo repository.UserInfoRepository) UserInfoService {
	return &userInfoServiceImpl{repo: repo}
}

func (u *userInfoServiceImpl) Me(ctx context.Context, a entity.Actor) (*respond.UserInfoRespond, error) {
	user, err := u.repo.GetByUUID(ctx, a.UserID)
	if err != nil {
		zlog.Error(err.Error())
		return nil, xerr.ErrServerError
	}
	out := &respond.UserInfoRespond{
		Uuid:         a.UserID,
		Role:         a.Role,
		Position:     a.Position,
		ScopeBreadth: a.Breadth,
		DepartmentId: a.DepartmentID,
		OfficeId:     a.OfficeID,
		DivisionId:   a.DivisionID,
		IsLeader:     a.IsLeader(),
	}
	if user == nil {
		return out, nil
	}
	out.Username = user.Username
	out.Nickname = user.DisplayName()
	out.Email = user.Email
	out.CreatedAt = user.CreatedAt.UTC().Format(time.RFC3339)
	return out, nil
}
