// Package version reports build information and compares database server
// versions.
package version

import (
	"fmt"
	"regexp"
	"runtime"
	"runtime/debug"

	goversion "github.com/hashicorp/go-version"
)

// Set at build time with -ldflags "-X github.com/cdi-explorer/cdi/internal/version.Version=v1.2.3".
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info describes the running binary.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Platform  string
}

// Get returns the build information, filling gaps from the module's VCS stamp.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, setting := range bi.Settings {
			switch {
			case setting.Key == "vcs.revision" && info.Commit == "":
				info.Commit = setting.Value
			case setting.Key == "vcs.time" && info.Date == "":
				info.Date = setting.Value
			}
		}
	}

	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

// String is the one-line form used by --version.
func (i Info) String() string {
	return fmt.Sprintf("cdi version %s (%s, %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString lists every field, one per line.
func (i Info) FullString() string {
	short := i.Commit
	if len(short) > 12 {
		short = short[:12]
	}
	return fmt.Sprintf("cdi version %s\n  commit:   %s\n  built:    %s\n  go:       %s\n  platform: %s",
		i.Version, short, i.Date, i.GoVersion, i.Platform)
}

var leadingVersion = regexp.MustCompile(`\d+(\.\d+)*`)

// ParseServer extracts the numeric version from a server banner such as
// "16.2 (Debian 16.2-1.pgdg120+2)", "8.0.36-0ubuntu0.22.04.1" or "v1.1.3".
func ParseServer(banner string) (*goversion.Version, error) {
	m := leadingVersion.FindString(banner)
	if m == "" {
		return nil, fmt.Errorf("no version number in %q", banner)
	}
	return goversion.NewVersion(m)
}

// CheckMinimum reports whether the server banner is at least minimum.
func CheckMinimum(banner, minimum string) (bool, error) {
	server, err := ParseServer(banner)
	if err != nil {
		return false, err
	}

	constraint, err := goversion.NewConstraint(">= " + minimum)
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}
	return constraint.Check(server), nil
}
