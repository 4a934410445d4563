// Package psl parses schema declaration files.
package psl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
)

var (
	ErrSyntax            = errors.New("syntax error")
	ErrMissingDatasource = errors.New("no datasource block")
	ErrMissingEnv        = errors.New("environment variable not set")
)

// parser is the Participle parser instance.
var parser = participle.MustBuild[Schema](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Newline", "Comment", "DocComment"),
	participle.Unquote("String"),
	participle.UseLookahead(4),
)

// Parse parses a schema from an io.Reader.
func Parse(filename string, r io.Reader) (*Schema, error) {
	s, err := parser.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return s, nil
}

// ParseString parses a schema from a string.
func ParseString(filename, input string) (*Schema, error) {
	return Parse(filename, strings.NewReader(input))
}

// ParseFile parses the schema file at path.
func ParseFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema: %w", err)
	}
	defer f.Close()
	return Parse(path, f)
}

// Property returns the value of the named property.
func (d *Datasource) Property(name string) *Expr {
	for _, p := range d.Properties {
		if p.Name == name {
			return p.Value
		}
	}
	return nil
}

// Provider returns the datasource's provider name.
func (d *Datasource) Provider() string {
	s, _ := d.Property("provider").AsString()
	return s
}

// URL resolves the datasource url, reading env("NAME") from the environment.
func (d *Datasource) URL() (string, error) {
	v := d.Property("url")
	if s, ok := v.AsString(); ok {
		return s, nil
	}
	if v != nil && v.Func != nil && v.Func.Name == "env" && len(v.Func.Args) == 1 {
		name, ok := v.Func.Args[0].Value.AsString()
		if !ok {
			return "", fmt.Errorf("env() takes a string, got %s", v.Func.Args[0].Value)
		}
		url := os.Getenv(name)
		if url == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingEnv, name)
		}
		return url, nil
	}
	if v == nil {
		return "", nil
	}
	return "", fmt.Errorf("unsupported url value %s", v)
}
