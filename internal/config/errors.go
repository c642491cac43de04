package config

import (
	"errors"
)

var (
	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyAPIBaseURL error if api.baseURL is needed but empty.
	ErrEmptyAPIBaseURL = errors.New("api.baseURL can not be empty")

	// ErrInvalidMode error if controller.mode is not a known mode.
	ErrInvalidMode = errors.New("controller.mode must be one of local, client, remote, server")

	// ErrInvalidPageSize error if controller.pageSize is negative.
	ErrInvalidPageSize = errors.New("controller.pageSize can not be negative")

	// ErrUnknownGormEngine error if db.gormEngine is not supported.
	ErrUnknownGormEngine = errors.New("db.gormEngine must be one of mysql, postgres, sqlite")

	// ErrUnknownUploadStore error if upload.store is not supported.
	ErrUnknownUploadStore = errors.New("upload.store must be one of db, mysql, postgres")

	// ErrEmptyClientName error if client.name is empty.
	ErrEmptyClientName = errors.New("client.name can not be empty")
)
