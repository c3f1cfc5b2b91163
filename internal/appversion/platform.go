package appversion

import "strings"

// Platform identifies the client family declared in X-App-Platform.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// ParsePlatform normalizes a header value. An empty value means web, which
// is what browsers and untagged integrations send.
func ParsePlatform(raw string) Platform {
	p := Platform(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return PlatformWeb
	}
	return p
}

// Known reports whether p is one of the supported platforms. Unknown
// platforms are still gated, they simply have no floor unless configured.
func (p Platform) Known() bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return true
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}
