/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package ddragon loads champion ability data in the Data Dragon layout,
// from the public CDN or an S3 mirror, optionally cached in Redis.
package ddragon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FuYoshi/lol-guesser/games/guesser"
)

const (
	DefaultBaseURL  = "https://ddragon.leagueoflegends.com/"
	DefaultVersion  = "12.20.1"
	DefaultLanguage = "en_US"

	// Latest asks the loader to resolve the newest published version.
	Latest = "latest"

	versionsPath = "api/versions.json"

	versionsKey     = "ddragon:versions"
	championFullKey = "ddragon:championFull:%s:%s"
)

var (
	ErrDataFetch         = errors.New("unable to load champion data")
	ErrMalformedDocument = errors.New("malformed champion document")
	ErrMalformedChampion = guesser.ErrMalformedChampion
	ErrNoVersions        = errors.New("no versions available")
	ErrCacheMiss         = errors.New("cache miss")
)

func championFullPath(version, language string) string {
	return fmt.Sprintf("cdn/%s/data/%s/championFull.json", version, language)
}

// AssetURL is the versioned root icons are served from.
func AssetURL(base, version string) string {
	return strings.TrimSuffix(base, "/") + "/cdn/" + version + "/"
}
