package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/gokatarajesh/finlit-quiz/internal/auth"
	"github.com/gokatarajesh/finlit-quiz/internal/auth/jwt"
	"github.com/gokatarajesh/finlit-quiz/internal/config"
	"github.com/gokatarajesh/finlit-quiz/internal/db/queries"
	"github.com/gokatarajesh/finlit-quiz/internal/db/repository"
	"github.com/gokatarajesh/finlit-quiz/internal/logging"
)

// seedFile lists accounts to create before a class starts.
type seedFile struct {
	Admin struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
	Students []seedStudent `yaml:"students"`
}

type seedStudent struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Mobile    string `yaml:"mobile"`
	StudentID string `yaml:"student_id"`
}

func main() {
	file := flag.String("file", "configs/seed.yaml", "YAML file with the admin and student accounts")
	flag.Parse()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load("configs/.env")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(cfg.Name+"-seed", cfg.Env)

	seed, err := readSeed(*file)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *file).Msg("failed to read seed file")
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	defer redisClient.Close()

	q := queries.New(pool)
	authSvc := auth.NewService(
		repository.NewStudentRepository(q),
		repository.NewAdminRepository(q),
		auth.NewOTPStore(redisClient, cfg.Auth.OTPTTL, cfg.Auth.OTPMaxAttempts),
		auth.ServiceOptions{
			TokenConfig:   jwt.TokenConfig{AccessSecret: []byte(cfg.Security.JWTSecret), RefreshSecret: []byte(cfg.Security.JWTSecret)},
			AllowedDomain: cfg.Auth.AllowedEmailDomain,
		},
		logger,
	)

	if seed.Admin.Username != "" {
		if _, err := authSvc.SeedAdmin(ctx, seed.Admin.Username, seed.Admin.Password); err != nil {
			logger.Fatal().Err(err).Str("username", seed.Admin.Username).Msg("failed to seed admin")
		}
		logger.Info().Str("username", seed.Admin.Username).Msg("admin seeded")
	}

	created, skipped := 0, 0
	for _, st := range seed.Students {
		_, err := authSvc.Register(ctx, auth.RegisterRequest{
			Email:     st.Email,
			Password:  st.Password,
			Mobile:    st.Mobile,
			StudentID: st.StudentID,
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, auth.ErrEmailTaken):
			skipped++
		default:
			logger.Error().Err(err).Str("email", st.Email).Msg("failed to seed student")
		}
	}
	logger.Info().Int("created", created).Int("existing", skipped).Msg("students seeded")
}

func readSeed(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &seed, nil
}
