package migrate

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/satishbabariya/schema-engine/migrate/connector"
)

// DSN converts a connection URL into the form the connector's driver accepts.
func DSN(conn *connector.Descriptor, rawURL string) (string, error) {
	switch conn.Name {
	case "mysql":
		return mysqlDSN(rawURL)
	case "sqlite":
		dsn := strings.TrimPrefix(rawURL, "sqlite://")
		return strings.TrimPrefix(dsn, "sqlite:"), nil
	case "cockroachdb":
		if rest, ok := strings.CutPrefix(rawURL, "cockroachdb://"); ok {
			return "postgresql://" + rest, nil
		}
		return rawURL, nil
	default:
		return rawURL, nil
	}
}

// mysqlDSN accepts mysql:// URLs and native DSNs. Times are always parsed.
func mysqlDSN(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "mysql://") {
		cfg, err := mysql.ParseDSN(rawURL)
		if err != nil {
			return "", fmt.Errorf("failed to parse mysql DSN: %w", err)
		}
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql URL: %w", err)
	}
	cfg := mysql.NewConfig()
	cfg.User = u.User.Username()
	cfg.Passwd, _ = u.User.Password()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	for k, v := range u.Query() {
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[k] = v[0]
	}
	return cfg.FormatDSN(), nil
}
