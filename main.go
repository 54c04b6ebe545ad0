// Package main library API.
//
// @title           libManager API
// @version         1.0
// @description     library service (authors, books, loans, users).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/deivisson-souza-84lab/libManager/app/echoServer"
	authctrl "github.com/deivisson-souza-84lab/libManager/app/echoServer/controller/auth"
	authorctrl "github.com/deivisson-souza-84lab/libManager/app/echoServer/controller/author"
	bookctrl "github.com/deivisson-souza-84lab/libManager/app/echoServer/controller/book"
	loanctrl "github.com/deivisson-souza-84lab/libManager/app/echoServer/controller/loan"
	"github.com/deivisson-souza-84lab/libManager/app/echoServer/validation"
	"github.com/deivisson-souza-84lab/libManager/config"
	authorrepo "github.com/deivisson-souza-84lab/libManager/repository/author"
	bookrepo "github.com/deivisson-souza-84lab/libManager/repository/book"
	loanrepo "github.com/deivisson-souza-84lab/libManager/repository/loan"
	mailerrepo "github.com/deivisson-souza-84lab/libManager/repository/mailer"
	tokenrepo "github.com/deivisson-souza-84lab/libManager/repository/token"
	userrepo "github.com/deivisson-souza-84lab/libManager/repository/user"
	authsvc "github.com/deivisson-souza-84lab/libManager/service/auth"
	authorsvc "github.com/deivisson-souza-84lab/libManager/service/author"
	booksvc "github.com/deivisson-souza-84lab/libManager/service/book"
	loansvc "github.com/deivisson-souza-84lab/libManager/service/loan"
	"github.com/deivisson-souza-84lab/libManager/util/database"
)

// overdueSweepEvery is how often reminder emails for overdue loans go out.
const overdueSweepEvery = 12 * time.Hour

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: pgx pool
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	ar := authorrepo.New(db)
	br := bookrepo.New(db)
	lr := loanrepo.New(db)
	mr := mailerrepo.NewHTTP(cfg.MailAPIURL, cfg.MailAPIKey)
	tokens := tokenrepo.NewRedis(cfg.RedisAddr)

	// services
	notifier := loansvc.NewNotifier(mr)
	as := authsvc.New(ur, tokens, cfg.JWTSecret)
	aus := authorsvc.New(db, ar)
	bs := booksvc.New(db, br, ar)
	ls := loansvc.New(db, lr, notifier, log)
	sweeper := loansvc.NewSweeper(lr, notifier, log)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	authorC := &authorctrl.Controller{Svc: aus, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	loanC := &loanctrl.Controller{Svc: ls, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:   authC,
		Author: authorC,
		Book:   bookC,
		Loan:   loanC,

		Tokens:    tokens,
		JWTSecret: cfg.JWTSecret,
	})

	go sweepOverdue(ctx, sweeper, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port)

	e.Logger.Fatal(e.Start(":" + port))
}

func sweepOverdue(ctx context.Context, sweeper loansvc.Sweeper, log *slog.Logger) {
	ticker := time.NewTicker(overdueSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweeper.SendReminders(ctx)
			if err != nil {
				log.Error("overdue sweep", "err", err)
				continue
			}
			log.Info("overdue sweep", "reminders_sent", n)
		}
	}
}
