// internal/version/version.go
package version

// Version is stamped by the release workflow via -ldflags.
var Version = "dev"
