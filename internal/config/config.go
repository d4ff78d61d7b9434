package config

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	MetricsEnabled         bool   `mapstructure:"metrics_enabled"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig selects and configures the document store.
// The memory driver keeps everything in-process and needs no URL.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
	URL    string `mapstructure:"url"    validate:"required_if=Driver postgres"`

	MaxOpenConns           int `mapstructure:"max_open_conns"            validate:"gte=0"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"            validate:"gte=0"`
	ConnMaxLifetimeMinutes int `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string   `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int      `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0,lt=1440"`
	RefreshTokenLifetimeMinutes int      `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0,gtfield=TokenLifetimeMinutes"`
	BCryptCost                  int      `mapstructure:"bcrypt_cost"                    validate:"gte=4,lte=31"`
	AdminEmails                 []string `mapstructure:"admin_emails"                   validate:"dive,email"`
}
