package entity

// 接收人范围
const (
	ScopeCreator    = "creator"
	ScopeTarget     = "target"
	ScopeDepartment = "department"
	ScopeOffice     = "office"
	ScopeDeptLeads  = "dept_leads"
	ScopeAdmins     = "admins"
)

func ValidScope(s string) bool {
	switch s {
	case ScopeCreator, ScopeTarget, ScopeDepartment, ScopeOffice, ScopeDeptLeads, ScopeAdmins:
		return true
	}
	return false
}

// TypeConfig 单个通知类型的配置
type TypeConfig struct {
	Enabled bool
	Scope   string
}

// DefaultTypeConfigs 未配置时使用的默认值
func DefaultTypeConfigs() map[string]TypeConfig {
	return map[string]TypeConfig{
		TypeEventCreated:     {Enabled: true, Scope: ScopeDepartment},
		TypeEventUpdated:     {Enabled: true, Scope: ScopeDepartment},
		TypeEventDeleted:     {Enabled: true, Scope: ScopeDepartment},
		TypeEventCompleted:   {Enabled: true, Scope: ScopeCreator},
		TypeEventUncompleted: {Enabled: true, Scope: ScopeCreator},
		TypeSeriesCreated:    {Enabled: true, Scope: ScopeDepartment},
		TypeSeriesUpdated:    {Enabled: true, Scope: ScopeDepartment},
		TypeSeriesDeleted:    {Enabled: true, Scope: ScopeDepartment},
		TypeSeriesCompleted:  {Enabled: true, Scope: ScopeCreator},
		TypeReminder:         {Enabled: true, Scope: ScopeDepartment},
		TypeDueSoon:          {Enabled: true, Scope: ScopeDepartment},
		TypeOverdue:          {Enabled: true, Scope: ScopeDeptLeads},
	}
}
