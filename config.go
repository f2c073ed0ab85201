/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/FuYoshi/lol-guesser/ddragon"
)

type Config struct {
	bind           string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	ddragonURL   string
	assetURL     string
	dataVersion  string
	language     string
	fetchTimeout time.Duration

	redisAddr     string
	redisPassword string
	redisDB       int
	cacheTTL      time.Duration

	s3Bucket    string
	s3Prefix    string
	s3Endpoint  string
	s3Region    string
	s3AccessKey string
	s3SecretKey string

	seed          uint64
	difficulty    int
	maxDifficulty int
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxDifficulty < 1 {
		return fmt.Errorf("invalid max difficulty (must be at least 1): %d", c.maxDifficulty)
	}
	if c.difficulty < 1 || c.difficulty > c.maxDifficulty {
		return fmt.Errorf("invalid difficulty (must be between 1-%d inclusive): %d", c.maxDifficulty, c.difficulty)
	}
	if c.fetchTimeout <= 0 {
		return fmt.Errorf("invalid fetch timeout (must be positive): %s", c.fetchTimeout)
	}
	if c.s3Bucket != "" && c.s3Region == "" {
		return errors.New("--s3-region is required when --s3-bucket is set")
	}
	if c.redisDB < 0 {
		return fmt.Errorf("invalid redis db (must not be negative): %d", c.redisDB)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LOLGUESSER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "lol-guesser",
		Short:         "Guess which icon belongs to a League of Legends ability, in the browser.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: LOLGUESSER_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: LOLGUESSER_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: LOLGUESSER_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: LOLGUESSER_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle games are ended (env: LOLGUESSER_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: LOLGUESSER_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: LOLGUESSER_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: LOLGUESSER_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: LOLGUESSER_VERSION)")

	fs.StringVar(&cfg.ddragonURL, "ddragon-url", ddragon.DefaultBaseURL, "data dragon mirror to load champion data from (env: LOLGUESSER_DDRAGON_URL)")
	fs.StringVar(&cfg.assetURL, "asset-url", ddragon.DefaultBaseURL, "data dragon mirror browsers load icons from (env: LOLGUESSER_ASSET_URL)")
	fs.StringVar(&cfg.dataVersion, "data-version", ddragon.DefaultVersion, `data dragon version, or "latest" (env: LOLGUESSER_DATA_VERSION)`)
	fs.StringVar(&cfg.language, "language", ddragon.DefaultLanguage, "data dragon locale for ability names (env: LOLGUESSER_LANGUAGE)")
	fs.DurationVar(&cfg.fetchTimeout, "fetch-timeout", 30*time.Second, "time allowed for loading champion data (env: LOLGUESSER_FETCH_TIMEOUT)")

	fs.StringVar(&cfg.redisAddr, "redis-addr", "", "host:port of a redis server to cache champion data in (env: LOLGUESSER_REDIS_ADDR)")
	fs.StringVar(&cfg.redisPassword, "redis-password", "", "redis password (env: LOLGUESSER_REDIS_PASSWORD)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database number (env: LOLGUESSER_REDIS_DB)")
	fs.DurationVar(&cfg.cacheTTL, "cache-ttl", 24*time.Hour, "time before cached champion data expires, 0 to keep forever (env: LOLGUESSER_CACHE_TTL)")

	fs.StringVar(&cfg.s3Bucket, "s3-bucket", "", "load champion data from this s3 bucket instead of --ddragon-url (env: LOLGUESSER_S3_BUCKET)")
	fs.StringVar(&cfg.s3Prefix, "s3-prefix", "", "key prefix of the data dragon tree in the bucket (env: LOLGUESSER_S3_PREFIX)")
	fs.StringVar(&cfg.s3Endpoint, "s3-endpoint", "", "custom s3 endpoint, for s3-compatible storage (env: LOLGUESSER_S3_ENDPOINT)")
	fs.StringVar(&cfg.s3Region, "s3-region", "", "s3 region (env: LOLGUESSER_S3_REGION)")
	fs.StringVar(&cfg.s3AccessKey, "s3-access-key", "", "s3 access key (env: LOLGUESSER_S3_ACCESS_KEY)")
	fs.StringVar(&cfg.s3SecretKey, "s3-secret-key", "", "s3 secret key (env: LOLGUESSER_S3_SECRET_KEY)")

	fs.Uint64Var(&cfg.seed, "seed", 0, "seed for board generation, 0 for random (env: LOLGUESSER_SEED)")
	fs.IntVar(&cfg.difficulty, "difficulty", 3, "default grid size offered to new games (env: LOLGUESSER_DIFFICULTY)")
	fs.IntVar(&cfg.maxDifficulty, "max-difficulty", 7, "largest grid size a game may request (env: LOLGUESSER_MAX_DIFFICULTY)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("lol-guesser v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
