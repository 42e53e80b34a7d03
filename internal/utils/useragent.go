package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// ClientInfo is the parsed User-Agent attached to request logs and booking audit fields
type ClientInfo struct {
	DeviceType string `json:"device_type"` // mobile, tablet, desktop
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
	Platform   string `json:"platform"` // android, ios, windows, mac, linux
}

var tabletIndicators = []string{"ipad", "tablet", "kindle", "playbook", "nexus 7", "nexus 9", "nexus 10", "sm-t"}

// ParseUserAgent extracts client information from a User-Agent string
func ParseUserAgent(userAgent string) ClientInfo {
	if userAgent == "" || userAgent == "Unknown" {
		return ClientInfo{DeviceType: "unknown", OS: "Unknown", Browser: "Unknown", Platform: "unknown"}
	}

	parser := ua.New(userAgent)
	info := ClientInfo{
		DeviceType: "desktop",
		OS:         osName(parser),
		Browser:    "Unknown",
		IsBot:      parser.Bot(),
		Platform:   platform(parser),
	}

	if name, _ := parser.Browser(); name != "" {
		info.Browser = name
	}

	if parser.Mobile() {
		info.DeviceType = "mobile"
		lower := strings.ToLower(userAgent)
		for _, indicator := range tabletIndicators {
			if strings.Contains(lower, indicator) {
				info.DeviceType = "tablet"
				break
			}
		}
	}

	return info
}

func osName(parser *ua.UserAgent) string {
	osInfo := parser.OSInfo()
	if osInfo.Name == "" {
		return "Unknown"
	}
	if osInfo.Version != "" {
		return osInfo.Name + " " + osInfo.Version
	}
	return osInfo.Name
}

func platform(parser *ua.UserAgent) string {
	name := strings.ToLower(parser.OSInfo().Name)

	// Checked in order: "mac os x" must not fall through to a shorter match
	platforms := []struct{ key, value string }{
		{"android", "android"},
		{"iphone os", "ios"},
		{"ios", "ios"},
		{"windows", "windows"},
		{"mac os x", "mac"},
		{"macos", "mac"},
		{"chrome os", "chromeos"},
		{"linux", "linux"},
		{"ubuntu", "linux"},
	}
	for _, p := range platforms {
		if strings.Contains(name, p.key) {
			return p.value
		}
	}
	return "unknown"
}
