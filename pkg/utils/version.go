// Package utils holds small shared values that don't warrant a package of
// their own.
package utils

// Set at build time via -ldflags.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
