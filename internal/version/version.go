package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"  // ex: v0.1.0
	Commit    = "none" // ex: abcd123
	GoVersion = runtime.Version()
)

func String() string {
	return fmt.Sprintf("deployctl %s (%s, %s)", Version, Commit, GoVersion)
}
