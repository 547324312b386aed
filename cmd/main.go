package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"classroom/backend/foundation/web"
	"classroom/backend/internal/auth"
	"classroom/backend/internal/commands"
	"classroom/backend/internal/pkg/config"
	"classroom/backend/internal/pkg/repository/postgresql"
	"classroom/backend/internal/repository/postgres/task"
	"classroom/backend/internal/router"

	"github.com/ardanlabs/conf"
	"github.com/redis/go-redis/v9"
)

var build = "develop"

type flags struct {
	ConfigPath string `conf:"default:config.yaml"`
	Migrate    bool   `conf:"default:true"`
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("startup: %v", err)
	}
}

func run() error {
	var f flags
	if err := conf.Parse(os.Args[1:], "CLASSROOM", &f); err != nil {
		if err == conf.ErrHelpWanted {
			usage, uerr := conf.Usage("CLASSROOM", &f)
			if uerr != nil {
				return uerr
			}
			fmt.Println(usage)
			return nil
		}
		return err
	}

	cfg, err := config.NewConfig(f.ConfigPath)
	if err != nil {
		return err
	}

	log.Printf("starting classroom backend build=%s", build)

	postgresDB := postgresql.NewDatabase(
		cfg.DBUsername,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DisableTLS,
	)
	defer postgresDB.Close()

	if f.Migrate {
		commands.MigrateUP(postgresDB)
	}

	redisDB := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	defer redisDB.Close()

	// No task may stay running across a restart.
	taskPostgres := task.NewRepository(postgresDB)
	recovered, err := taskPostgres.RecoverRunningTasks(context.Background(), cfg.RecoveryPolicy)
	if err != nil {
		return err
	}
	if recovered > 0 {
		log.Printf("recovered %d running tasks with policy %q", recovered, cfg.RecoveryPolicy)
	}

	authenticator := auth.New(cfg.JWTKey)
	app := web.NewApp()

	r := router.NewRouter(
		app,
		postgresDB,
		redisDB,
		cfg.ServerPort,
		authenticator,
		cfg.BaseUrl,
		time.Duration(cfg.CheckinTTLMin)*time.Minute,
	)

	return r.Init()
}
