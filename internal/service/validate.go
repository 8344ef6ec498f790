package service

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	priceRe       = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	channelNameRe = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)
	timeSlotRe    = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

func ValidPrice(raw string) bool {
	return priceRe.MatchString(strings.TrimSpace(raw))
}

// NormalizeChannelUsername accepts "@name", "name" or a t.me link and returns
// the canonical "@name" form.
func NormalizeChannelUsername(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if strings.Contains(raw, "t.me/") {
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return "", false
		}
		raw = strings.Trim(u.Path, "/")
		if idx := strings.Index(raw, "/"); idx >= 0 {
			raw = raw[:idx]
		}
	}

	name := strings.TrimPrefix(raw, "@")
	if !channelNameRe.MatchString(name) {
		return "", false
	}
	return "@" + name, true
}
