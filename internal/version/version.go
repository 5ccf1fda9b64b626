// Package version holds build metadata, stamped via -ldflags at release
// time:
//
//	go build -ldflags "-X github.com/routecast/navrig/internal/version.Version=v1.2.0 \
//	  -X github.com/routecast/navrig/internal/version.GitSHA=$(git rev-parse --short HEAD) \
//	  -X github.com/routecast/navrig/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
