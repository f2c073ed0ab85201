/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ddragon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/FuYoshi/lol-guesser/games/guesser"
)

// A new patch should become visible within the hour even when release data
// is cached indefinitely.
const versionsTTL = time.Hour

// LoaderDeps is the dependency list for the loader. Cache and Logf are
// optional.
type LoaderDeps struct {
	Source   Source
	Cache    Cache
	CacheTTL time.Duration
	AssetURL string
	Logf     func(format string, args ...any)
}

// Loader fetches champion data once per call, going to the cache first.
type Loader struct {
	source   Source
	cache    Cache
	cacheTTL time.Duration
	assetURL string
	logf     func(format string, args ...any)
}

func NewLoader(deps *LoaderDeps) *Loader {
	l := &Loader{
		source:   deps.Source,
		cache:    deps.Cache,
		cacheTTL: deps.CacheTTL,
		assetURL: deps.AssetURL,
		logf:     deps.Logf,
	}
	if l.assetURL == "" {
		l.assetURL = DefaultBaseURL
	}
	if l.logf == nil {
		l.logf = func(string, ...any) {}
	}

	return l
}

// LatestVersion returns the newest entry of api/versions.json.
func (l *Loader) LatestVersion(ctx context.Context) (string, error) {
	body, cached, err := l.fetch(ctx, versionsKey, versionsPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDataFetch, err)
	}

	version, err := decodeLatest(body)
	if err != nil && cached {
		l.logf("CACHE: Discarding unreadable %s: %v", versionsKey, err)

		body, err = l.source.Get(ctx, versionsPath)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrDataFetch, err)
		}
		cached = false
		version, err = decodeLatest(body)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDataFetch, err)
	}

	if !cached {
		l.store(ctx, versionsKey, body, versionsTTL)
	}

	return version, nil
}

func decodeLatest(body []byte) (string, error) {
	var versions []string
	if err := json.Unmarshal(body, &versions); err != nil {
		return "", fmt.Errorf("decode versions: %w", err)
	}
	if len(versions) == 0 || versions[0] == "" {
		return "", ErrNoVersions
	}

	return versions[0], nil
}

// Load returns the champion data for version ("latest" resolves first) in
// the given language. Every failure wraps ErrDataFetch.
func (l *Loader) Load(ctx context.Context, version, language string) (guesser.ChampionData, error) {
	if version == "" || version == Latest {
		latest, err := l.LatestVersion(ctx)
		if err != nil {
			return guesser.ChampionData{}, err
		}
		version = latest
	}
	if language == "" {
		language = DefaultLanguage
	}

	key := fmt.Sprintf(championFullKey, version, language)
	path := championFullPath(version, language)
	assets := AssetURL(l.assetURL, version)

	body, cached, err := l.fetch(ctx, key, path)
	if err != nil {
		return guesser.ChampionData{}, fmt.Errorf("%w: %w", ErrDataFetch, err)
	}

	data, err := Decode(bytes.NewReader(body), assets)
	if err != nil && cached {
		l.logf("CACHE: Discarding unreadable %s: %v", key, err)

		body, err = l.source.Get(ctx, path)
		if err != nil {
			return guesser.ChampionData{}, fmt.Errorf("%w: %w", ErrDataFetch, err)
		}
		cached = false
		data, err = Decode(bytes.NewReader(body), assets)
	}
	if err != nil {
		return guesser.ChampionData{}, fmt.Errorf("%w: %w", ErrDataFetch, err)
	}

	if !cached {
		l.store(ctx, key, body, l.cacheTTL)
	}

	l.logf("DATA: Loaded %d champions for %s (%s)", data.Len(), version, language)

	return data, nil
}

// fetch reads key from the cache, falling back to path on the source. The
// boolean reports whether the bytes came from the cache. Nothing is stored
// until the caller has validated the bytes.
func (l *Loader) fetch(ctx context.Context, key, path string) ([]byte, bool, error) {
	if l.cache != nil {
		body, err := l.cache.Get(ctx, key)
		switch {
		case err == nil:
			l.logf("CACHE: Hit %s", key)
			return body, true, nil
		case errors.Is(err, ErrCacheMiss):
			l.logf("CACHE: Miss %s", key)
		default:
			l.logf("CACHE: Unable to read %s: %v", key, err)
		}
	}

	body, err := l.source.Get(ctx, path)
	if err != nil {
		return nil, false, err
	}

	return body, false, nil
}

func (l *Loader) store(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if l.cache == nil {
		return
	}

	if err := l.cache.Set(ctx, key, body, ttl); err != nil {
		l.logf("CACHE: Unable to store %s: %v", key, err)
	}
}
