package config

import (
	"time"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/logger"
)

// Config overall data structure.
type Config struct {
	Title      string
	DevMode    bool // enable dev mode for development
	Log        logger.Log
	DB         DB
	Webserver  Webserver
	API        API
	Controller Controller
	Client     Client
	Auth       Auth
	Upload     Upload
}

// Webserver implements the demo backend webserver settings.
type Webserver struct {
	Port           int    // listening port for the webserver
	URL            string // public base url, used for upload links
	ShutDownTime   int    // seconds to answer 503 on /checkalive before stopping
	DisableRecover bool   // disable recover middleware
	BodyLimitMB    int    // request body limit
}

// API configures the data-access collaborator used by the command line.
type API struct {
	BaseURL   string        // e.g. "http://localhost:8080/api"
	UploadURL string        // upload base url, defaults to BaseURL
	Timeout   time.Duration // per request
	RateLimit float64       // requests per second, 0 = unlimited
	RateBurst int
}

// Controller holds the entity controller defaults.
type Controller struct {
	Mode             string // "local"/"client" or "remote"/"server"
	PageSize         int
	RemoteDebounce   time.Duration
	LocalDebounce    time.Duration
	RefPageSize      int
	PreferredColumns []string
	MaxColumns       *int
}

// Client selects the deployment whose options documents are served.
type Client struct {
	Name         string
	SchemaDir    string // directory of <entity>.toml options documents
	SchemaSource string // "dir" or "db"
}

// Auth configures the identity provider.
type Auth struct {
	IssuerURL    string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	SessionFile  string
}

// Upload configures the upload endpoint of the demo backend.
type Upload struct {
	Store        string // "db", "mysql" or "postgres"
	Table        string // table of the gofiber storage backends
	MaxSizeMB    int
	AllowedTypes []string // accepted content types, empty = all
}
