package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound  = goerr.New("configuration file not found")
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrDuplicateOrgID  = goerr.New("duplicate org ID")
	ErrMissingName     = goerr.New("name is required")
	ErrMissingAPIToken = goerr.New("api_token is required")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	OrgIDKey      = "org_id"
	OrgIndexKey   = "org_index"
)
