// Command authd runs the authentication engine as a standalone HTTP
// service. Configuration comes from the environment; without a Redis
// address it starts an embedded miniredis, which makes local runs
// self-contained but keeps nothing across restarts.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	authcore "github.com/ethrane/authcore"
	"github.com/ethrane/authcore/httpapi"
	"github.com/ethrane/authcore/mailer"
	"github.com/ethrane/authcore/metrics/export/prometheus"
)

type envConfig struct {
	ListenAddr        string        `env:"AUTHD_LISTEN_ADDR" envDefault:":8080"`
	MetricsListenAddr string        `env:"AUTHD_METRICS_LISTEN_ADDR"`
	RedisAddr         string        `env:"AUTHD_REDIS_ADDR"`
	RedisPassword     string        `env:"AUTHD_REDIS_PASSWORD"`
	RedisDB           int           `env:"AUTHD_REDIS_DB" envDefault:"0"`
	AccessSecret      string        `env:"AUTHD_ACCESS_SECRET,required"`
	RefreshSecret     string        `env:"AUTHD_REFRESH_SECRET,required"`
	AccessTTL         time.Duration `env:"AUTHD_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL        time.Duration `env:"AUTHD_REFRESH_TTL" envDefault:"720h"`
	VerificationKind  string        `env:"AUTHD_VERIFICATION_KIND" envDefault:"otp"`
	VerifyBaseURL     string        `env:"AUTHD_VERIFY_BASE_URL"`
	SMTPHost          string        `env:"AUTHD_SMTP_HOST"`
	SMTPPort          int           `env:"AUTHD_SMTP_PORT" envDefault:"587"`
	SMTPUsername      string        `env:"AUTHD_SMTP_USERNAME"`
	SMTPPassword      string        `env:"AUTHD_SMTP_PASSWORD"`
	SMTPFrom          string        `env:"AUTHD_SMTP_FROM"`
}

func main() {
	logger := log.New(os.Stderr, "authd: ", log.LstdFlags)

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		logger.Fatalf("config: %v", err)
	}

	redisAddr := ec.RedisAddr
	if redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			logger.Fatalf("embedded redis: %v", err)
		}
		defer mr.Close()
		redisAddr = mr.Addr()
		logger.Printf("no AUTHD_REDIS_ADDR set, using embedded redis at %s (volatile)", redisAddr)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: ec.RedisPassword,
		DB:       ec.RedisDB,
	})
	defer rdb.Close()

	sender, err := buildMailer(ec, logger)
	if err != nil {
		logger.Fatalf("mailer: %v", err)
	}

	cfg := authcore.DefaultConfig()
	cfg.JWT.AccessKey = []byte(ec.AccessSecret)
	cfg.JWT.RefreshKey = []byte(ec.RefreshSecret)
	cfg.JWT.AccessTTL = ec.AccessTTL
	cfg.JWT.RefreshTTL = ec.RefreshTTL
	if ec.VerificationKind == "link" {
		cfg.Verification.Kind = authcore.VerificationLink
		cfg.Verification.VerifyBaseURL = ec.VerifyBaseURL
	}

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithMailer(sender).
		WithAuditSink(authcore.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		logger.Fatalf("engine build: %v", err)
	}
	defer engine.Close()

	if ec.MetricsListenAddr != "" {
		exporter := prometheus.NewPrometheusExporter(engine)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", exporter.Handler())
			logger.Printf("metrics on %s", ec.MetricsListenAddr)
			if err := http.ListenAndServe(ec.MetricsListenAddr, mux); err != nil {
				logger.Printf("metrics listener: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              ec.ListenAddr,
		Handler:           httpapi.NewServer(engine, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", ec.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}

func buildMailer(ec envConfig, logger *log.Logger) (mailer.Sender, error) {
	if ec.SMTPHost == "" {
		logger.Printf("no AUTHD_SMTP_HOST set, verification mail goes to the process log")
		return mailer.LogSender{}, nil
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     ec.SMTPHost,
		Port:     ec.SMTPPort,
		Username: ec.SMTPUsername,
		Password: ec.SMTPPassword,
		From:     ec.SMTPFrom,
	})
}
