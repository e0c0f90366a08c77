package config

import (
	"os"

	"github.com/spf13/pflag"
)

// DatabaseConfig is the MySQL connection subset the command-line tools
// need.  It defaults from the same DB_* variables the server reads.
type DatabaseConfig struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// DatabaseFromEnv reads DB_* variables, falling back to a local server.
func DatabaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		User: envStr("DB_USER", "root"),
		Pass: os.Getenv("DB_PASS"),
		Host: envStr("DB_HOST", "127.0.0.1"),
		Port: envStr("DB_PORT", "3306"),
		Name: envStr("DB_NAME", "condo"),
	}
}

// AddFlags lets flags override the environment defaults already in d.
func (d *DatabaseConfig) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&d.User, "db-user", d.User, "database user")
	fs.StringVar(&d.Pass, "db-pass", d.Pass, "database password")
	fs.StringVar(&d.Host, "db-host", d.Host, "database host")
	fs.StringVar(&d.Port, "db-port", d.Port, "database port")
	fs.StringVar(&d.Name, "db-name", d.Name, "database name")
}
