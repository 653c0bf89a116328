package configkey

import (
	"fmt"
	"strings"
)

// ClientSecurity is the capability surface an embedding client exposes to
// this core. All fields are optional; the second return reports presence.
// The verification protocol may query it but never requires it.
type ClientSecurity interface {
	// ConfigKey returns the client's Config Key, if exposed.
	ConfigKey() (string, bool)

	// BrowserExamKey returns the client's Browser Exam Key, if exposed.
	// Its derivation is outside this core; it is only surfaced.
	BrowserExamKey() (string, bool)

	// Version returns the client version string, if exposed, in the form
	// parsed by ParseClientVersion.
	Version() (string, bool)
}

// OS is a recognized client operating system token.
type OS string

const (
	OSWindows OS = "Windows"
	OSMacOS   OS = "macOS"
	OSiOS     OS = "iOS"
)

// ClientVersion is the parsed form of a client version string
// "AppName_OS_Version_Build_BundleId".
type ClientVersion struct {
	AppName  string
	OS       OS
	Version  string
	Build    string
	BundleID string
}

// ParseClientVersion parses a client version string. The bundle identifier
// is everything after the fourth underscore and may itself contain
// underscores. Fewer than five segments or an unrecognized OS token is an
// error, never a guess.
func ParseClientVersion(s string) (ClientVersion, error) {
	parts := strings.SplitN(s, "_", 5)
	if len(parts) < 5 {
		return ClientVersion{}, fmt.Errorf("configkey: client version %q: expected 5 underscore-delimited segments, got %d", s, len(parts))
	}
	os := OS(parts[1])
	switch os {
	case OSWindows, OSMacOS, OSiOS:
	default:
		return ClientVersion{}, fmt.Errorf("configkey: client version %q: unrecognized OS token %q", s, parts[1])
	}
	return ClientVersion{
		AppName:  parts[0],
		OS:       os,
		Version:  parts[2],
		Build:    parts[3],
		BundleID: parts[4],
	}, nil
}
