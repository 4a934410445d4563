package commands

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/satishbabariya/schema-engine/internal/config"
	"github.com/satishbabariya/schema-engine/internal/ui"
	"github.com/satishbabariya/schema-engine/migrate"
	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/converter"
	"github.com/satishbabariya/schema-engine/migrate/schema"
	"github.com/satishbabariya/schema-engine/psl"
)

// project is a parsed schema file and the database it targets.
type project struct {
	path    string
	ast     *psl.Schema
	conn    *connector.Descriptor
	desired *schema.SchemaModel
}

func schemaPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.SchemaPath
}

// loadProject parses and builds the schema at path.
func loadProject(path string) (*project, error) {
	data, err := afero.ReadFile(config.AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	ast, err := psl.ParseString(path, string(data))
	if err != nil {
		return nil, err
	}

	conn, err := projectConnector(ast)
	if err != nil {
		return nil, err
	}
	desired, err := converter.Build(ast, conn)
	if err != nil {
		return nil, err
	}
	return &project{path: path, ast: ast, conn: conn, desired: desired}, nil
}

func projectConnector(ast *psl.Schema) (*connector.Descriptor, error) {
	if cfg.Provider != "" {
		return connector.ForProvider(cfg.Provider)
	}
	return converter.Connector(ast)
}

// databaseURL prefers the configured URL over the datasource's.
func (p *project) databaseURL() (string, error) {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL, nil
	}
	ds := p.ast.Datasource()
	if ds == nil {
		return "", psl.ErrMissingDatasource
	}
	return ds.URL()
}

// openEngine connects to the project's database with the configured engine options.
func (p *project) openEngine(ctx context.Context) (*migrate.Engine, error) {
	url, err := p.databaseURL()
	if err != nil {
		return nil, err
	}
	return openEngine(ctx, p.conn, url)
}

func openEngine(ctx context.Context, conn *connector.Descriptor, url string) (*migrate.Engine, error) {
	spinner, _ := ui.PrintSpinner(fmt.Sprintf("Connecting to %s", conn.Name))
	engine, err := migrate.Open(ctx, conn, url,
		migrate.WithIntrospectionTimeout(cfg.IntrospectionTimeout),
		migrate.WithIgnoredTables(cfg.IgnoreTables...),
		migrate.WithHistory(cfg.HistoryEnabled),
	)
	if spinner != nil {
		_ = spinner.Stop()
	}
	return engine, err
}

// connection resolves the target database without requiring a valid schema. The configured provider
// and URL win; otherwise the datasource of the schema file is used.
func connection(path string) (*connector.Descriptor, string, error) {
	if cfg.Provider != "" && cfg.DatabaseURL != "" {
		conn, err := connector.ForProvider(cfg.Provider)
		return conn, cfg.DatabaseURL, err
	}
	data, err := afero.ReadFile(config.AppFs, path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read schema: %w", err)
	}
	ast, err := psl.ParseString(path, string(data))
	if err != nil {
		return nil, "", err
	}
	p := &project{path: path, ast: ast}
	if p.conn, err = projectConnector(ast); err != nil {
		return nil, "", err
	}
	url, err := p.databaseURL()
	return p.conn, url, err
}
