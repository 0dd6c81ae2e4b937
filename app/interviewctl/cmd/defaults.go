package cmd

import "time"

const (
	defaultLinkTTL      = 14 * 24 * time.Hour
	defaultRetryBackoff = 10 * time.Second
)
