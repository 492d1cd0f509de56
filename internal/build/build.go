// Package build holds values stamped in at link time.
package build

var (
	Version = "dev"
	AppName = "athenahistory"
)
