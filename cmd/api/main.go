package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/hafizmfadli/movies-api/internal/auth"
	"github.com/hafizmfadli/movies-api/internal/catalog"
	"github.com/hafizmfadli/movies-api/internal/data"
	"github.com/hafizmfadli/movies-api/internal/jsonlog"
	"github.com/hafizmfadli/movies-api/internal/mailer"
	"github.com/hafizmfadli/movies-api/internal/seed"
)

// Application version number
const version = "1.0.0"

// config struct hold all the configuration settings for out application.
type config struct {

	// the network port that we want the server to listen on
	port int

	// current operating environment for the application (dev, staging, prod, etc..)
	env string

	// minimum severity written by the logger
	logLevel string

	// db struct field hold the configuration settings for our database connection pool.
	db struct {
		dsn          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  string
	}

	// limiter struct containing fields for the requests per second and burst
	// values, and a boolean field which we can use to enable/disable rate limiting
	// altogether
	limiter struct {
		rps     float64
		burst   int
		enabled bool
	}

	// smtp struct hold smtp configuration
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}

	// auth holds the token signing secret and token lifetime
	auth struct {
		secret   string
		tokenTTL time.Duration
	}

	// catalog holds the settings of the external film catalog used for seeding
	catalog struct {
		url              string
		timeout          time.Duration
		failureThreshold uint
		openTimeout      time.Duration
	}

	seed struct {
		concurrency int
	}
}

// application struct hold the dependencies for our HTTP handlers, helpers, and middleware.
type application struct {
	config  config
	logger  *jsonlog.Logger
	models  data.Models
	tokens  *auth.Tokens
	gate    *auth.Gate
	seeder  interface {
		Run(ctx context.Context) ([]*data.Movie, error)
	}
	mailer interface {
		Send(recipient, templateFile string, data any) error
	}
	metrics *metrics
	// sync.WaitGroup is used to coordinate the graceful shutdown and our background goroutine
	wg sync.WaitGroup
}

func main() {

	// A missing .env file is fine: flags and the real environment still apply.
	_ = godotenv.Load()

	var cfg config

	// Read the value of the port and enc command-line flags into the config struct.
	flag.IntVar(&cfg.port, "port", 4000, "API server port")
	flag.StringVar(&cfg.env, "env", "development", "Environment (development|staging|production)")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "Minimum log level (debug|info|error|fatal|off)")
	flag.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("MOVIES_DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&cfg.db.maxIdleConns, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	flag.StringVar(&cfg.db.maxIdleTime, "db-max-idle-time", "15m", "PostgreSQL max connection idle time")
	flag.Float64Var(&cfg.limiter.rps, "limiter-rps", 2, "Rate limiter maximum request per seocnd")
	flag.IntVar(&cfg.limiter.burst, "limiter-burst", 4, "Rate limiter maximum burst")
	flag.BoolVar(&cfg.limiter.enabled, "limiter-enabled", true, "Enable rate limiter")
	flag.StringVar(&cfg.smtp.host, "smtp-host", "127.0.0.1", "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", 1025, "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("MOVIES_SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("MOVIES_SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", "Movies <no-reply@movies.hafizmfadli.net>", "SMTP sender")
	flag.StringVar(&cfg.auth.secret, "auth-secret", os.Getenv("AUTH_SECRET"), "Access token signing secret")
	flag.DurationVar(&cfg.auth.tokenTTL, "auth-token-ttl", time.Hour, "Access token lifetime")
	flag.StringVar(&cfg.catalog.url, "catalog-url", catalog.DefaultURL, "Film catalog endpoint used for seeding")
	flag.DurationVar(&cfg.catalog.timeout, "catalog-timeout", 10*time.Second, "Film catalog request timeout")
	flag.UintVar(&cfg.catalog.failureThreshold, "catalog-failure-threshold", 5, "Consecutive catalog failures that open the circuit breaker")
	flag.DurationVar(&cfg.catalog.openTimeout, "catalog-open-timeout", 30*time.Second, "How long the catalog circuit breaker stays open")
	flag.IntVar(&cfg.seed.concurrency, "seed-concurrency", 0, "Maximum concurrent inserts while seeding (0 = unlimited)")

	flag.Parse()

	level, levelErr := jsonlog.ParseLevel(cfg.logLevel)

	// Every entry carries the environment so logs from several deployments can
	// share a sink.
	logger := jsonlog.NewLogger(os.Stdout, level).With(map[string]string{
		"env": cfg.env,
	})
	if levelErr != nil {
		logger.PrintError(levelErr, map[string]string{"fallback": level.String()})
	}

	tokens, err := auth.NewTokens(auth.Config{
		Secret:   []byte(cfg.auth.secret),
		TokenTTL: cfg.auth.tokenTTL,
	})
	if err != nil {
		logger.PrintFatal(err, nil)
	}

	db, err := openDB(cfg)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	defer db.Close()

	logger.PrintInfo("database connection pool established", nil)

	models := data.NewModels(db)
	films := catalog.New(catalog.Config{
		URL:              cfg.catalog.url,
		Timeout:          cfg.catalog.timeout,
		FailureThreshold: uint32(cfg.catalog.failureThreshold),
		OpenTimeout:      cfg.catalog.openTimeout,
	})

	app := &application{
		config:  cfg,
		logger:  logger,
		models:  models,
		tokens:  tokens,
		gate:    auth.NewGate(tokens, routeRequirements),
		seeder:  seed.New(films, models.Movies, cfg.seed.concurrency),
		mailer:  mailer.New(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender),
		metrics: newMetrics(),
	}

	err = app.serve()
	if err != nil {
		logger.PrintFatal(err, nil)
	}
}

// openDB returns a sql.DB connection pool
func openDB(cfg config) (*sql.DB, error) {
	// create an empty connection pool
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	// Set the maximum number of open (in-use + idle) connections in the pool.
	// Note that passing a value less than or equal to 0 will mean there is no limit.
	db.SetMaxOpenConns(cfg.db.maxOpenConns)

	// Set the maximum number of idle connections in the pool. Again, passing a value
	// less than or equal to 0 will mean there is no limit.
	db.SetMaxIdleConns(cfg.db.maxIdleConns)

	duration, err := time.ParseDuration(cfg.db.maxIdleTime)
	if err != nil {
		return nil, err
	}

	// Set the maximum idle timeout
	db.SetConnMaxIdleTime(duration)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// establish a new connection to the database. If the connection couldn't be
	// established successfully within the 5 second deadline, then this will return an error
	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}
