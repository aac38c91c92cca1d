// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/likexian/selfca"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"zpassword/internal/api"
	"zpassword/internal/config"
	"zpassword/internal/metrics"
	"zpassword/internal/store"
	"zpassword/internal/util"
	"zpassword/pkg/cracktime"
	"zpassword/pkg/hibp"
	"zpassword/pkg/report"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the password generation and checking API",
		Long: "Serve the password generation and checking API. Configuration is read from the environment " +
			"(PORT, DATABASE_URL, REDIS_URL, HIBP_URL, SELF_TLS, TLS_CERT, TLS_KEY, ...), flags take precedence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCommand(cmd)
		},
	}
)

func init() {
	serveCmd.Flags().BoolVar(&selfTLS, "self-tls", false,
		"If the server should use a self-signed certificate when starting. The certificate is renewed on each server restart")
	serveCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to the PEM encoded TLS certificate to be used by the server")
	serveCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to the PEM encoded TLS private key to be used by the server")
	serveCmd.Flags().Uint16VarP(&port, "port", "p", 3100, "Port to be used by the server")
	serveCmd.Flags().StringVar(&strategy, "strategy", "advanced", "Crack time estimation strategy, one of [simple advanced]")

	rootCmd.AddCommand(serveCmd)
}

// applyFlags overrides the environment with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("self-tls") {
		cfg.SelfTLS = selfTLS
	}
	if flags.Changed("tls-cert") {
		cfg.TLSCert = tlsCert
	}
	if flags.Changed("tls-key") {
		cfg.TLSKey = tlsKey
	}
	if flags.Changed("port") {
		cfg.Port = port
	}
	if flags.Changed("strategy") {
		cfg.Strategy = strategy
	}
}

func serveCommand(cmd *cobra.Command) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	cfg, err := config.Read()
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err = config.Validate(cfg); err != nil {
		return err
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	m := metrics.New(prometheus.DefaultRegisterer)

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error initializing store: %w", err)
	}
	defer closeStore()

	cache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error initializing range cache: %w", err)
	}
	defer closeCache()

	checker := hibp.NewChecker(
		hibp.NewHttpClient(cfg.HibpTimeout, cfg.HibpRetries),
		hibp.WithBaseURL(cfg.HibpURL),
		hibp.WithPadding(cfg.HibpPadding),
		hibp.WithCache(metrics.InstrumentCache(cache, m)),
	)

	estimator, ok := cracktime.ByName(cfg.Strategy)
	if !ok {
		return fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.SetLogger(logger.WithLogger(func(c *gin.Context, z zerolog.Logger) zerolog.Logger {
		return zerolog.New(gin.DefaultWriter).With().Timestamp().Logger()
	}), logger.WithSkipPath([]string{"/healthz", "/metrics"})))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	api.RegisterUserApi(v1.Group("/users"), st, m)
	api.RegisterCheckApi(v1.Group("/check"), report.NewComposer(estimator, checker), m)

	srvAddr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              srvAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("starting TLS Server on address: %s", srvAddr)
		if cfg.TLSCert != "" && cfg.TLSKey != "" {
			// service connections with tls certs
			if err := srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("error starting server")
			}
		} else {
			log.Warn().Msgf("using auto self-signed certificate for TLS. This is not recommended for production. Please consider using your own certificates.")
			pair, err := selfSignedCertificate()
			if err != nil {
				log.Fatal().Err(err).Msg("error generating auto self-signed certificate")
			}

			srv.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{pair},
			}

			// service connections with tls config, no need to pass files
			if err = srv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("error starting server")
			}
		}
	}()

	gracefulShutdown(srv)
	return nil
}

// openStore uses Postgres when DATABASE_URL is set, otherwise the history lives in memory and
// is lost on restart.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL is not set, password history is kept in memory")
		return store.NewMemory(), func() {}, nil
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DBRetries, 2*time.Second)
	if err != nil {
		return nil, nil, err
	}

	pg := store.NewPostgres(pool)
	if err = pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return pg, pool.Close, nil
}

// openCache prefers Redis so replicas share ranges. A zero CACHE_TTL disables caching.
func openCache(ctx context.Context, cfg config.Config) (hibp.RangeCache, func(), error) {
	if cfg.CacheTTL == 0 {
		return nil, func() {}, nil
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}

		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err = client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}

		log.Info().Msgf("caching ranges in redis %s for %s", opts.Addr, cfg.CacheTTL)
		return hibp.NewRedisCache(client, cfg.CacheTTL), func() { _ = client.Close() }, nil
	}

	cache, err := hibp.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache.Close, nil
}

func selfSignedCertificate() (tls.Certificate, error) {
	caConfig := selfca.Certificate{
		IsCA:      true,
		KeySize:   2048,
		NotBefore: time.Now(),
		// 30 day self-signed cert.
		NotAfter: time.Now().Add(time.Duration(30*24) * time.Hour),
	}

	// generating the certificate
	certificate, key, err := selfca.GenerateCertificate(caConfig)
	if err != nil {
		return tls.Certificate{}, err
	}

	return tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certificate}),
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
	)
}

func gracefulShutdown(srv *http.Server) {
	// Wait for interrupt signal to gracefully shut down the server with
	// a timeout.
	quit := make(chan os.Signal, 1)
	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall. SIGKILL but can't be a catch, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("server Shutdown.")
	}
	log.Info().Msg("server exiting...")
}
