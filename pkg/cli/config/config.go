package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// AppConfig holds the path of the org definition file
type AppConfig struct {
	path string
}

func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML file defining orgs",
			Value:       "chatpro.toml",
			Sources:     cli.EnvVars("CHATPRO_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure loads the org file and builds the org registry
func (a *AppConfig) Configure() (*OrgFile, *model.OrgRegistry, error) {
	file, err := LoadOrgConfiguration(a.path)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Registry(), nil
}

// OrgFile is the content of the org definition file
type OrgFile struct {
	Orgs []OrgEntry `toml:"org"`
}

// OrgEntry describes one org and its RapidPro workspace. Secrets may refer to
// environment variables as ${NAME}.
type OrgEntry struct {
	ID            string   `toml:"id"`
	Name          string   `toml:"name"`
	APIURL        string   `toml:"api_url"`
	APIToken      string   `toml:"api_token" masq:"secret"`
	WebhookSecret string   `toml:"webhook_secret" masq:"secret"`
	ChatNameField string   `toml:"chat_name_field"`
	Rooms         []string `toml:"rooms"`
	Active        *bool    `toml:"active"`
}

const defaultAPIURL = "https://app.rapidpro.io"

// Validate checks if the OrgEntry is valid
func (e *OrgEntry) Validate() error {
	if e.ID == "" {
		return goerr.Wrap(ErrInvalidConfig, "org id is required", goerr.V(OrgIDKey, e.ID))
	}
	if e.Name == "" {
		return goerr.Wrap(ErrMissingName, "org name is required", goerr.V(OrgIDKey, e.ID))
	}
	if e.APIToken == "" {
		return goerr.Wrap(ErrMissingAPIToken, "RapidPro token is required", goerr.V(OrgIDKey, e.ID))
	}
	if e.APIURL != "" {
		u, err := url.Parse(e.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return goerr.Wrap(ErrInvalidConfig, "invalid api_url", goerr.V(OrgIDKey, e.ID), goerr.V("api_url", e.APIURL))
		}
	}
	for _, room := range e.Rooms {
		if room == "" {
			return goerr.Wrap(ErrInvalidConfig, "empty room group", goerr.V(OrgIDKey, e.ID))
		}
	}
	return nil
}

// ToDomain converts the entry to a domain Org
func (e *OrgEntry) ToDomain() *model.Org {
	apiURL := e.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	rooms := make([]model.GroupID, len(e.Rooms))
	for i, r := range e.Rooms {
		rooms[i] = model.GroupID(r)
	}

	return &model.Org{
		ID:            model.OrgID(e.ID),
		Name:          e.Name,
		APIURL:        apiURL,
		APIToken:      e.APIToken,
		WebhookSecret: e.WebhookSecret,
		ChatNameField: e.ChatNameField,
		Rooms:         rooms,
		IsActive:      e.Active == nil || *e.Active,
	}
}

// Validate checks every org and rejects duplicate IDs
func (f *OrgFile) Validate() error {
	if len(f.Orgs) == 0 {
		return goerr.Wrap(ErrInvalidConfig, "at least one org is required")
	}

	seen := make(map[string]bool, len(f.Orgs))
	for i := range f.Orgs {
		org := &f.Orgs[i]
		if err := org.Validate(); err != nil {
			return goerr.Wrap(err, "invalid org", goerr.V(OrgIndexKey, i))
		}
		if seen[org.ID] {
			return goerr.Wrap(ErrDuplicateOrgID, "org defined twice", goerr.V(OrgIDKey, org.ID))
		}
		seen[org.ID] = true
	}
	return nil
}

// Registry builds the org registry in file order
func (f *OrgFile) Registry() *model.OrgRegistry {
	registry := model.NewOrgRegistry()
	for i := range f.Orgs {
		registry.Register(f.Orgs[i].ToDomain())
	}
	return registry
}

// LoadOrgConfiguration reads, expands and validates the org file at path
func LoadOrgConfiguration(path string) (*OrgFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "org file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file OrgFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	for i := range file.Orgs {
		file.Orgs[i].APIToken = os.ExpandEnv(file.Orgs[i].APIToken)
		file.Orgs[i].WebhookSecret = os.ExpandEnv(file.Orgs[i].WebhookSecret)
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &file, nil
}
