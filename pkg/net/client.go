// Package net provides the shared HTTP clients used for outbound calls.
package net

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 30
)

var reqTransport = &http.Transport{
	MaxIdleConns:          maxIdleConns,
	IdleConnTimeout:       timeoutInSeconds * time.Second,
	ResponseHeaderTimeout: timeoutInSeconds * time.Second,
}

// GetHTTPClient returns a client with a hard request timeout. Oracle
// calls are network-bound and must be time-bounded; a timeout is treated
// by callers the same as capability unavailable.
func GetHTTPClient() *http.Client {
	return &http.Client{
		Transport: reqTransport,
		Timeout:   timeoutInSeconds * time.Second,
	}
}

// GetOAuthClient returns a client sending the token as a bearer header.
func GetOAuthClient(ctx context.Context, token string) *http.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{
			TokenType:   "Bearer",
			AccessToken: token,
		},
	)
	c := oauth2.NewClient(ctx, ts)
	c.Timeout = timeoutInSeconds * time.Second
	return c
}
