// Package meta carries build identification stamped in at link time.
package meta

// Version and Commit are overridden by the release build:
//
//	go build -ldflags "\
//	  -X github.com/argusmon/argus/internal/meta.Version=v1.2.3 \
//	  -X github.com/argusmon/argus/internal/meta.Commit=0a1b2c3"
//
// The defaults mark a build straight from a working tree.
var (
	Version = "HEAD"
	Commit  = "UNKNOWN"
)
