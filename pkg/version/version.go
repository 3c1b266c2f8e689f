// Package version reports build information injected at link time, e.g.
// go build -ldflags "-X github.com/codeoc/dashboard/pkg/version.commitFromGit=$(git rev-parse HEAD)"
package version

import (
	"fmt"
	"runtime"
)

var (
	commitFromGit = "unknown"
	buildDate     = "1970-01-01T00:00:00Z"
)

type Info struct {
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Compiler  string `json:"compiler" yaml:"compiler"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		GitCommit: commitFromGit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
