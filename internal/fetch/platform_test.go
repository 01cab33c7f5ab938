package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://github.com/adalovelace", PlatformGitHub},
		{"https://adalovelace.github.io/cv/", PlatformGitHub},
		{"https://www.linkedin.com/in/ada-lovelace", PlatformLinkedIn},
		{"https://gitlab.com/ada", PlatformGitLab},
		{"https://ada.dev/resume", PlatformUnknown},
		{"https://notgithub.com/ada", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(tt.url))
		})
	}
}

func TestNeedsBrowser(t *testing.T) {
	assert.True(t, NeedsBrowser(PlatformLinkedIn))
	assert.False(t, NeedsBrowser(PlatformGitHub))
	assert.False(t, NeedsBrowser(PlatformUnknown))
}

func TestPlatformContentSelectors(t *testing.T) {
	assert.Equal(t, ".markdown-body", PlatformContentSelectors(PlatformGitHub)[0])
	assert.Equal(t, ProfileSelectors(), PlatformContentSelectors(PlatformUnknown))
}

func TestPlatformNoiseSelectors(t *testing.T) {
	linkedin := PlatformNoiseSelectors(PlatformLinkedIn)
	assert.Contains(t, linkedin, ".authwall")
	assert.Contains(t, linkedin, "form")

	unknown := PlatformNoiseSelectors(PlatformUnknown)
	assert.Contains(t, unknown, ".cookie-banner")
	assert.NotContains(t, unknown, ".authwall")
}
