package common

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var botNameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.\-]+$`)

// ValidateBotName keeps bot names usable as a single @-mention token.
func ValidateBotName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 50 {
		return errors.New("bot name must be between 2 and 50 characters")
	}
	if !botNameRegex.MatchString(name) {
		return errors.New("bot name can only contain letters, numbers, dots, dashes and underscores")
	}
	return nil
}

func ValidateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid webhook url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("webhook url must use http or https")
	}
	if u.Host == "" {
		return errors.New("webhook url must have a host")
	}
	return nil
}
