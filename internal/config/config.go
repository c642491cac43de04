// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/controller"
)

// EnvConfigJSON names the environment variable whose JSON is merged over the TOML config.
const EnvConfigJSON = "GO_ENTITY_ADMIN_CONFIG_JSON"

// EnvPrefix prefixes the single-value environment overrides, e.g. ENTITY_ADMIN_API_BASEURL.
const EnvPrefix = "ENTITY_ADMIN"

// ReadConfig from <path>main.toml, merged with the JSON of EnvConfigJSON.
func ReadConfig(path string) (Config, error) {
	var c Config

	if path == "" {
		path = "./etc/"
	}

	if _, err := toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if raw := os.Getenv(EnvConfigJSON); raw != "" {
		var err error
		if c, err = decodeAndMergeConfig(c, raw); err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, errors.Wrapf(err, "failed to decode %s", EnvConfigJSON)
	}

	return c, nil
}

// overrideKeys are the viper keys ApplyOverrides copies onto the config.
var overrideKeys = map[string]func(c *Config, v *viper.Viper, key string){ //nolint:gochecknoglobals
	"api.baseurl":      func(c *Config, v *viper.Viper, k string) { c.API.BaseURL = v.GetString(k) },
	"api.uploadurl":    func(c *Config, v *viper.Viper, k string) { c.API.UploadURL = v.GetString(k) },
	"client.name":      func(c *Config, v *viper.Viper, k string) { c.Client.Name = v.GetString(k) },
	"controller.mode":  func(c *Config, v *viper.Viper, k string) { c.Controller.Mode = v.GetString(k) },
	"controller.size":  func(c *Config, v *viper.Viper, k string) { c.Controller.PageSize = v.GetInt(k) },
	"auth.sessionfile": func(c *Config, v *viper.Viper, k string) { c.Auth.SessionFile = v.GetString(k) },
	"auth.clientid":    func(c *Config, v *viper.Viper, k string) { c.Auth.ClientID = v.GetString(k) },
	"db.password":      func(c *Config, v *viper.Viper, k string) { c.DB.Password = v.GetString(k) },
}

// NewViper returns a viper instance reading EnvPrefix environment variables, e.g. ENTITY_ADMIN_CLIENT_NAME
// for "client.name".
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// ApplyOverrides copies every override key set in v, from the environment or a bound flag, onto c and
// validates the result.
func ApplyOverrides(v *viper.Viper, c *Config) error {
	for key, set := range overrideKeys {
		if v.IsSet(key) {
			set(c, v, key)
		}
	}

	return validate(c)
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer

	if err := toml.NewEncoder(&buffer).Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// RequireAPI reports ErrEmptyAPIBaseURL for commands talking to the data-access backend.
func (c *Config) RequireAPI() error {
	if c.API.BaseURL == "" {
		return ErrEmptyAPIBaseURL
	}

	return nil
}

// UploadBase returns the upload base url, falling back to the API base url.
func (c *Config) UploadBase() string {
	if c.API.UploadURL != "" {
		return c.API.UploadURL
	}

	return c.API.BaseURL
}

// validate checks the settings every command depends on and fills in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5
	}

	if c.Controller.Mode == "" {
		c.Controller.Mode = string(controller.ModeLocal)
	}

	mode, ok := controller.ParseMode(c.Controller.Mode)
	if !ok {
		return errors.Wrap(ErrInvalidMode, invalidErrMessage)
	}

	c.Controller.Mode = string(mode)

	if c.Controller.PageSize < 0 {
		return errors.Wrap(ErrInvalidPageSize, invalidErrMessage)
	}

	if c.Client.Name == "" {
		return errors.Wrap(ErrEmptyClientName, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineSQLite
	case EngineMySQL, EnginePostgres, EngineSQLite:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	switch c.Upload.Store {
	case "":
		c.Upload.Store = "db"
	case "db", EngineMySQL, EnginePostgres:
	default:
		return errors.Wrap(ErrUnknownUploadStore, invalidErrMessage)
	}

	return nil
}
