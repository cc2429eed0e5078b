package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"OrgCalendar/internal/config"
	"OrgCalendar/internal/modules/calendar/domain/scope"
	"OrgCalendar/internal/modules/notification/domain/entity"
	"OrgCalendar/internal/modules/notification/domain/repository"
	userEntity "OrgCalendar/internal/modules/user/domain/entity"
	userRepository "OrgCalendar/internal/modules/user/domain/repository"
	"OrgCalendar/pkg/metrics"
	"OrgCalendar/pkg/storetime"
	"OrgCalendar/pkg/zlog"
)

// SharedTag 共享实体通知的标题前缀
const SharedTag = "[Shared] "

// Context 通知上下文
type Context struct {
	ActorID      string // 操作人, 不会收到自己的通知
	CreatorID    string
	Placement    userEntity.Placement
	TargetUserID string
	RelatedRef   string
	TimeKey      string
	Metadata     map[string]any
	Shares       []scope.Target
	// DedupWindow 大于 0 时, 窗口内同一接收人、类型、TimeKey 只通知一次
	DedupWindow time.Duration
}

type Request struct {
	Type    string
	Title   string
	Message string
	Context Context
}

// Result 实际写入的接收人
type Result struct {
	Recipients []string
	Shared     []string
}

func (r Result) Total() int {
	return len(r.Recipients) + len(r.Shared)
}

// Deduper 去重标记
type Deduper interface {
	// Claim 返回 false 表示窗口内已通知过
	Claim(ctx context.Context, userID, typ, timeKey string, window time.Duration) (bool, error)
	Release(ctx context.Context, userID, typ, timeKey string)
}

// Deliverer 站外投递渠道 (邮件/推送)
type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, user userEntity.UserInfo, n *entity.Notification) error
}

type FanoutService interface {
	Notify(ctx context.Context, req Request) (Result, error)
}

type fanoutServiceImpl struct {
	repo       repository.NotificationRepository
	users      userRepository.UserInfoRepository
	dedup      Deduper
	deliverers []Deliverer
	types      map[string]entity.TypeConfig
	clock      *storetime.Clock
	// deliverTimeout 单次异步投递的超时
	deliverTimeout time.Duration
}

func NewFanoutService(
	repo repository.NotificationRepository,
	users userRepository.UserInfoRepository,
	dedup Deduper,
	types map[string]entity.TypeConfig,
	clock *storetime.Clock,
	deliverers ...Deliverer,
) FanoutService {
	if types == nil {
		types = entity.DefaultTypeConfigs()
	}
	return &fanoutServiceImpl{
		repo:           repo,
		users:          users,
		dedup:          dedup,
		deliverers:     deliverers,
		types:          types,
		clock:          clock,
		deliverTimeout: 30 * time.Second,
	}
}

// TypeConfigs 用配置文件覆盖默认的通知类型配置
func TypeConfigs(conf config.NotificationConfig) map[string]entity.TypeConfig {
	out := entity.DefaultTypeConfigs()
	for typ, c := range conf.Types {
		tc, ok := out[typ]
		if !ok {
			tc = entity.TypeConfig{Enabled: true, Scope: entity.ScopeCreator}
		}
		if c.Enabled != nil {
			tc.Enabled = *c.Enabled
		}
		if entity.ValidScope(c.Scope) {
			tc.Scope = c.Scope
		} else if c.Scope != "" {
			zlog.Warn("unknown notification scope, keep default", zap.String("type", typ), zap.String("scope", c.Scope))
		}
		out[typ] = tc
	}
	return out
}

func (s *fanoutServiceImpl) Notify(ctx context.Context, req Request) (Result, error) {
	var res Result
	tc, ok := s.types[req.Type]
	if !ok || !tc.Enabled {
		return res, nil
	}

	owners, err := s.resolveScope(ctx, tc.Scope, req.Context)
	if err != nil {
		return res, err
	}
	exclude := map[string]struct{}{}
	if req.Context.ActorID != "" {
		exclude[req.Context.ActorID] = struct{}{}
	}
	owners = filterUsers(owners, exclude)
	for _, u := range owners {
		exclude[u.Uuid] = struct{}{}
	}

	// 共享通知单独计算, 已通知过的人不再重复
	var shared []userEntity.UserInfo
	if len(req.Context.Shares) > 0 {
		shared, err = s.resolveShares(ctx, req.Context.Shares)
		if err != nil {
			return res, err
		}
		shared = filterUsers(shared, exclude)
	}

	owners, ownerClaims := s.applyDedup(ctx, req, owners)
	shared, sharedClaims := s.applyDedup(ctx, req, shared)
	claims := append(ownerClaims, sharedClaims...)

	now := s.clock.Now()
	rows := make([]*entity.Notification, 0, len(owners)+len(shared))
	for _, u := range owners {
		rows = append(rows, s.build(req, u.Uuid, req.Title, now))
	}
	for _, u := range shared {
		rows = append(rows, s.build(req, u.Uuid, SharedTag+req.Title, now))
	}
	if len(rows) == 0 {
		return res, nil
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		for _, userID := range claims {
			s.dedup.Release(ctx, userID, req.Type, req.Context.TimeKey)
		}
		return res, err
	}
	metrics.NotificationsCreated.WithLabelValues(req.Type).Add(float64(len(rows)))

	for _, u := range owners {
		res.Recipients = append(res.Recipients, u.Uuid)
	}
	for _, u := range shared {
		res.Shared = append(res.Shared, u.Uuid)
	}

	s.deliverAsync(rows, append(owners, shared...))
	return res, nil
}

func (s *fanoutServiceImpl) build(req Request, userID, title string, now time.Time) *entity.Notification {
	var meta datatypes.JSONMap
	if len(req.Context.Metadata) > 0 {
		meta = datatypes.JSONMap(req.Context.Metadata)
	}
	return &entity.Notification{
		UserId:         userID,
		Type:           req.Type,
		Title:          title,
		Message:        req.Message,
		RelatedEventId: req.Context.RelatedRef,
		TimeKey:        req.Context.TimeKey,
		Metadata:       meta,
		CreatedAt:      now,
	}
}

func (s *fanoutServiceImpl) resolveScope(ctx context.Context, sc string, c Context) ([]userEntity.UserInfo, error) {
	switch sc {
	case entity.ScopeCreator:
		return s.byIDs(ctx, c.CreatorID)
	case entity.ScopeTarget:
		return s.byIDs(ctx, c.TargetUserID)
	case entity.ScopeDepartment:
		if c.Placement.DepartmentID == "" {
			return nil, nil
		}
		return s.users.ListActiveByDepartment(ctx, c.Placement.DepartmentID)
	case entity.ScopeOffice:
		if c.Placement.OfficeID == "" {
			return nil, nil
		}
		return s.users.ListActiveByOffice(ctx, c.Placement.OfficeID)
	case entity.ScopeDeptLeads:
		return s.users.ListLeads(ctx, c.Placement)
	case entity.ScopeAdmins:
		return s.users.ListAdmins(ctx)
	}
	return nil, errors.New("unknown notification scope: " + sc)
}

func (s *fanoutServiceImpl) byIDs(ctx context.Context, id string) ([]userEntity.UserInfo, error) {
	if id == "" {
		return nil, nil
	}
	return s.users.GetByUUIDs(ctx, []string{id})
}

func (s *fanoutServiceImpl) resolveShares(ctx context.Context, targets []scope.Target) ([]userEntity.UserInfo, error) {
	byOffice := map[string][]userEntity.UserInfo{}
	seen := map[string]struct{}{}
	var out []userEntity.UserInfo
	for _, t := range targets {
		members, ok := byOffice[t.OfficeID]
		if !ok {
			var err error
			if members, err = s.users.ListActiveByOffice(ctx, t.OfficeID); err != nil {
				return nil, err
			}
			byOffice[t.OfficeID] = members
		}
		for _, m := range members {
			if _, dup := seen[m.Uuid]; dup {
				continue
			}
			if scope.SharedWith(m.Actor()).Matches(t) {
				seen[m.Uuid] = struct{}{}
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// applyDedup 返回需要通知的用户, 以及已占用去重标记的用户
func (s *fanoutServiceImpl) applyDedup(ctx context.Context, req Request, users []userEntity.UserInfo) ([]userEntity.UserInfo, []string) {
	window := req.Context.DedupWindow
	if window <= 0 || s.dedup == nil || req.Context.TimeKey == "" || len(users) == 0 {
		return users, nil
	}
	kept := users[:0:0]
	var claimed []string
	for _, u := range users {
		ok, err := s.dedup.Claim(ctx, u.Uuid, req.Type, req.Context.TimeKey, window)
		if err != nil {
			// 去重失败时宁可重复通知
			zlog.Warn("notification dedup check failed", zap.String("user", u.Uuid), zap.Error(err))
			kept = append(kept, u)
			continue
		}
		if !ok {
			metrics.NotificationsDeduplicated.WithLabelValues(req.Type).Inc()
			continue
		}
		kept = append(kept, u)
		claimed = append(claimed, u.Uuid)
	}
	return kept, claimed
}

func (s *fanoutServiceImpl) deliverAsync(rows []*entity.Notification, users []userEntity.UserInfo) {
	if len(s.deliverers) == 0 {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zlog.Error("notification delivery panic", zap.Any("recover", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.deliverTimeout)
		defer cancel()
		for i, n := range rows {
			for _, d := range s.deliverers {
				if err := d.Deliver(ctx, users[i], n); err != nil {
					metrics.DeliveryFailures.WithLabelValues(d.Name()).Inc()
					zlog.Warn("notification delivery failed",
						zap.String("channel", d.Name()),
						zap.String("user", n.UserId),
						zap.Int64("notification", n.Id),
						zap.Error(err))
				}
			}
		}
	}()
}

func filterUsers(users []userEntity.UserInfo, exclude map[string]struct{}) []userEntity.UserInfo {
	out := make([]userEntity.UserInfo, 0, len(users))
	seen := map[string]struct{}{}
	for _, u := range users {
		if _, skip := exclude[u.Uuid]; skip {
			continue
		}
		if _, dup := seen[u.Uuid]; dup {
			continue
		}
		seen[u.Uuid] = struct{}{}
		out = append(out, u)
	}
	return out
}
