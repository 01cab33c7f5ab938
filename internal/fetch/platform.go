package fetch

import (
	"net/url"
	"strings"
)

// Platform is a known host of candidate profiles.
type Platform string

const (
	// PlatformGitHub covers github.com profiles and github.io pages
	PlatformGitHub Platform = "github"
	// PlatformLinkedIn covers public linkedin.com profiles
	PlatformLinkedIn Platform = "linkedin"
	// PlatformGitLab covers gitlab.com profiles
	PlatformGitLab Platform = "gitlab"
	// PlatformUnknown is a personal site or anything unrecognized
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the profile platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.com") || strings.HasSuffix(host, ".github.io"):
		return PlatformGitHub
	case host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com"):
		return PlatformLinkedIn
	case host == "gitlab.com" || strings.HasSuffix(host, ".gitlab.com"):
		return PlatformGitLab
	}
	return PlatformUnknown
}

// NeedsBrowser reports whether pages on the platform only render their
// content with JavaScript.
func NeedsBrowser(platform Platform) bool {
	return platform == PlatformLinkedIn
}

// PlatformContentSelectors returns content selectors for a platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGitHub:
		return []string{
			".markdown-body", // profile README and github.io pages
			".js-profile-editable-area",
			"main",
		}
	case PlatformLinkedIn:
		return []string{
			".top-card-layout",
			".core-section-container",
			"main",
		}
	case PlatformGitLab:
		return []string{
			".profile-header",
			".user-profile",
			"main",
		}
	default:
		return ProfileSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a platform.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		"form",
		".social-share",
		".share-buttons",
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",
		".newsletter",
	}

	switch platform {
	case PlatformGitHub:
		return append(common,
			".js-pinned-items-reorder-container",
			".js-yearly-contributions",
			".footer",
		)
	case PlatformLinkedIn:
		return append(common,
			".join-form",
			".authwall",
			".people-also-viewed",
			".similar-profiles",
		)
	case PlatformGitLab:
		return append(common, ".user-calendar")
	default:
		return common
	}
}
