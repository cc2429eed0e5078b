package service_test

import "OrgCalendar/internal/config"

func configWith(enabled map[string]*bool, scopes map[string]string) config.NotificationConfig {
	types := map[string]config.NotificationTypeConfig{}
	for k, v := range enabled {
		c := types[k]
		c.Enabled = v
		types[k] = c
	}
	for k, v := range scopes {
		c := types[k]
		c.Scope = v
		types[k] = c
	}
	return config.NotificationConfig{Types: types}
}
