// Package version reports the campaignshot build and the browser driver
// binding it was linked with. Version, GitCommit and BuildDate are set via
// -ldflags; unset values fall back to the Go build info.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	unknown          = "unknown"
	playwrightModule = "github.com/playwright-community/playwright-go"
)

var readBuildInfo = debug.ReadBuildInfo

// Info contains structured version information.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	Playwright string `json:"playwright"`
}

// GetInfo returns the current version info.
func GetInfo() Info {
	info := Info{
		Version:    Version,
		GitCommit:  GitCommit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Playwright: unknown,
	}
	if bi, ok := readBuildInfo(); ok && bi != nil {
		fromBuildInfo(&info, bi)
	}
	return info
}

func fromBuildInfo(info *Info, bi *debug.BuildInfo) {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == unknown && s.Value != "" {
				info.GitCommit = shortSHA(s.Value)
			}
		case "vcs.time":
			if info.BuildDate == unknown && s.Value != "" {
				info.BuildDate = s.Value
			}
		}
	}
	for _, dep := range bi.Deps {
		if dep.Path != playwrightModule {
			continue
		}
		info.Playwright = dep.Version
		if dep.Replace != nil {
			info.Playwright = dep.Replace.Version
		}
	}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// String returns e.g. "v0.2.0 (abc1234)".
func String() string {
	i := GetInfo()
	return fmt.Sprintf("%s (%s)", i.Version, i.GitCommit)
}

// Full adds the build date, Go version and playwright-go binding.
func Full() string {
	i := GetInfo()
	return fmt.Sprintf("%s (%s) built %s with %s, playwright-go %s",
		i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Playwright)
}
