package source

import (
	"strconv"
	"strings"
)

// ConnInfo holds discrete Postgres connection parameters.
type ConnInfo struct {
	Host     string
	Port     int
	DBName   string
	User     string
	Password string
	// Options is an optional raw libpq connection string. When set, the
	// discrete fields other than Password are ignored.
	Options string
	// NoPassword sends an explicit empty password, so the driver does not
	// fall back to PGPASSWORD or a password file.
	NoPassword bool
}

// DSN renders the parameters as a libpq key/value connection string.
func (c ConnInfo) DSN() string {
	password := c.Password
	if c.NoPassword {
		password = ""
	}

	if c.Options != "" {
		if password == "" && !c.NoPassword {
			return c.Options
		}
		return c.Options + " password=" + quoteValue(password)
	}

	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+quoteValue(value))
		}
	}
	add("host", c.Host)
	if c.Port > 0 {
		add("port", strconv.Itoa(c.Port))
	}
	add("dbname", c.DBName)
	add("user", c.User)
	if c.NoPassword {
		parts = append(parts, "password=''")
	} else {
		add("password", password)
	}
	return strings.Join(parts, " ")
}

// quoteValue quotes a libpq connection value when it needs it.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
