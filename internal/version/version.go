// Package version holds the engine's build information.
package version

import (
	"errors"
	"fmt"
	"runtime"

	goversion "github.com/hashicorp/go-version"
)

var (
	// Version is the version of the engine
	Version = "0.1.0"
	// BuildDate is the build date
	BuildDate = "unknown"
	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// ErrIncompatible is returned for artifacts written by a newer major version of the engine.
var ErrIncompatible = errors.New("written by an incompatible engine version")

// Info holds version information
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
}

// Get returns version information
func Get() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a formatted version string
func (i Info) String() string {
	return fmt.Sprintf("schema-engine version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString returns a detailed version string
func (i Info) FullString() string {
	return fmt.Sprintf(`schema-engine version %s
Build Date: %s
Git Commit: %s
Platform: %s
Go Version: %s`, i.Version, i.BuildDate, i.GitCommit, i.Platform, i.GoVersion)
}

// CheckCompatible returns ErrIncompatible when written has a newer major version than current.
func CheckCompatible(written, current string) error {
	w, err := goversion.NewVersion(written)
	if err != nil {
		return fmt.Errorf("invalid version format %q: %w", written, err)
	}
	c, err := goversion.NewVersion(current)
	if err != nil {
		return fmt.Errorf("invalid version format %q: %w", current, err)
	}
	if w.Segments()[0] > c.Segments()[0] {
		return fmt.Errorf("%w: %s is newer than %s", ErrIncompatible, w, c)
	}
	return nil
}
