// Package buildinfo carries build-time metadata that is not part of user configuration.
package buildinfo

// UnknownValue is reported for metadata the build did not stamp.
const UnknownValue = "unknown"

// Context holds the values injected with -ldflags at build time.
type Context struct {
	// Version is the git tag of the build.
	Version string
	// BuildDate is when the binary was built.
	BuildDate string
}

// NewContext returns a Context for the given build values.
func NewContext(version, buildDate string) *Context {
	return &Context{Version: version, BuildDate: buildDate}
}

// GetVersion returns the version, or UnknownValue when unset.
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate returns the build date, or UnknownValue when unset.
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}
