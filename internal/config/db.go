package config

// Database engines.
const (
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	GormEngine string // mysql, postgres or sqlite
	Extras     string // driver specific dsn parameters
	Host       string
	Port       int
	User       string
	Password   string
	Name       string // database name, or the file for sqlite
}
