package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskhive/taskhive/config"
	"github.com/taskhive/taskhive/model"
	"github.com/taskhive/taskhive/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mm, err := model.Connect(ctx, model.DBConfig{
		DSN:          cfg.DBURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer mm.Close()

	users := model.NewUserStore(mm, cfg.PwdKey)
	tasks := model.NewTaskStore(mm)

	server := web.NewServer(web.Config{
		TokenKey:      cfg.TokenKey,
		TokenDuration: cfg.TokenDuration,
	}, users, tasks)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(cfg.WebAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("shutting down")
		return server.Shutdown()
	}
}
