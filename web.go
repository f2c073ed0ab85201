/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/FuYoshi/lol-guesser/ddragon"
	"github.com/FuYoshi/lol-guesser/games/guesser"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "credentialless")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

// cspGame widens the default policy so the board can show icons from the
// asset host.
func cspGame(cfg *Config, w http.ResponseWriter) {
	imgSrc := "'self'"
	if u, err := urlOrigin(cfg.assetURL); err == nil {
		imgSrc += " " + u
	}

	w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src "+imgSrc+"; connect-src 'self' ws: wss:")
}

func urlOrigin(raw string) (string, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || rest == "" {
		return "", fmt.Errorf("not an absolute url: %q", raw)
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host, nil
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

func serveVersion(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("lol-guesser v" + releaseVersion + "\n"))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Version page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// newLoader builds the champion data loader from the configured source and
// optional cache. The returned func releases the cache connection.
func newLoader(ctx context.Context, cfg *Config) (*ddragon.Loader, func()) {
	var source ddragon.Source
	if cfg.s3Bucket != "" {
		logf(cfg, "DATA: Reading champion data from s3://%s/%s", cfg.s3Bucket, cfg.s3Prefix)
		source = ddragon.NewS3Source(ddragon.S3Options{
			Bucket:    cfg.s3Bucket,
			Prefix:    cfg.s3Prefix,
			Endpoint:  cfg.s3Endpoint,
			Region:    cfg.s3Region,
			AccessKey: cfg.s3AccessKey,
			SecretKey: cfg.s3SecretKey,
		})
	} else {
		logf(cfg, "DATA: Reading champion data from %s", cfg.ddragonURL)
		source = ddragon.NewHTTPSource(&http.Client{Timeout: cfg.fetchTimeout}, cfg.ddragonURL)
	}

	deps := &ddragon.LoaderDeps{
		Source:   source,
		CacheTTL: cfg.cacheTTL,
		AssetURL: cfg.assetURL,
		Logf: func(format string, args ...any) {
			logf(cfg, format, args...)
		},
	}

	closeCache := func() {}
	if cfg.redisAddr != "" {
		cache := ddragon.NewRedisCache(ddragon.RedisOptions{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		deps.Cache = cache
		closeCache = func() { _ = cache.Close() }

		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := cache.Ping(pingCtx); err != nil {
			logf(cfg, "CACHE: Redis at %s unreachable, reading through to source: %v", cfg.redisAddr, err)
		} else {
			logf(cfg, "CACHE: Using redis at %s", cfg.redisAddr)
		}
	}

	return ddragon.NewLoader(deps), closeCache
}

func loadChampionData(ctx context.Context, cfg *Config) (guesser.ChampionData, error) {
	loader, closeCache := newLoader(ctx, cfg)
	defer closeCache()

	ctx, cancel := context.WithTimeout(ctx, cfg.fetchTimeout)
	defer cancel()

	data, err := loader.Load(ctx, cfg.dataVersion, cfg.language)
	if err != nil {
		return guesser.ChampionData{}, err
	}

	if largest := guesser.MaxGridSize(data); largest < cfg.maxDifficulty {
		logf(cfg, "DATA: Only %d champions available, limiting difficulty to %d", data.Len(), largest)
		cfg.maxDifficulty = largest
		if cfg.difficulty > largest {
			cfg.difficulty = largest
		}
	}
	if cfg.maxDifficulty < 1 {
		return guesser.ChampionData{}, fmt.Errorf("%w: no champions to play with", ddragon.ErrDataFetch)
	}

	return data, nil
}

func newRouter(cfg *Config, data guesser.ChampionData, errs chan<- error) *httprouter.Router {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, newPage("Server Error", "An error has occurred. Please try again."))
	}

	mux.GET(cfg.prefix+"/", serveHomePage(cfg))

	mux.GET(cfg.prefix+"/assets/*filepath", serveAssets(cfg, errs))

	mux.GET(cfg.prefix+"/favicons/*favicon", serveFavicons(cfg, errs))

	mux.GET(cfg.prefix+"/favicon.svg", serveFavicons(cfg, errs))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	registerGuesserGame(cfg, "/guesser", data, mux)

	return mux
}

func ServePage(ctx context.Context, cfg *Config) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	logf(cfg, "START: lol-guesser v%s", releaseVersion)

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	data, err := loadChampionData(ctx, cfg)
	if err != nil {
		return err
	}

	errs := make(chan error, 64)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           newRouter(cfg, data, errs),
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	go func() {
		for err := range errs {
			logf(cfg, "ERROR: %v", err)
		}
	}()

	serveErr := make(chan error, 1)

	go func() {
		var err error
		logf(cfg, "SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	return nil
}
