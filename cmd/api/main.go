package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "ckmoney-backend/internal/adapter/http"
	"ckmoney-backend/internal/adapter/middleware"
	"ckmoney-backend/internal/adapter/repository/dual"
	localrepo "ckmoney-backend/internal/adapter/repository/local"
	"ckmoney-backend/internal/adapter/repository/mysql"
	"ckmoney-backend/internal/config"
	"ckmoney-backend/internal/contract"
	loanDomain "ckmoney-backend/internal/domain/loan"
	notifDomain "ckmoney-backend/internal/domain/notification"
	"ckmoney-backend/internal/infrastructure/cache"
	"ckmoney-backend/internal/infrastructure/db"
	"ckmoney-backend/internal/infrastructure/localstore"
	lifecycleUC "ckmoney-backend/internal/usecase/lifecycle"
	loanUC "ckmoney-backend/internal/usecase/loan"
	notifUC "ckmoney-backend/internal/usecase/notification"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := gdb.AutoMigrate(&loanDomain.Loan{}, &notifDomain.Notification{}); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	kv, err := localstore.Open(cfg.LocalDBPath)
	if err != nil {
		log.Fatalf("local store: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	loans := dual.NewLoanRepository(
		mysql.NewLoanRepository(gdb),
		localrepo.NewLoanStore(kv),
		time.Duration(cfg.RemoteTimeoutMS)*time.Millisecond,
		time.Duration(cfg.ListTimeoutMS)*time.Millisecond,
	)
	notifications := notifUC.NewUsecase(mysql.NewNotificationRepository(gdb))

	loanSvc := loanUC.NewUsecase(loans, contract.Template{})
	lifecycleSvc := lifecycleUC.NewUsecase(loans, notifications)

	h := httpadp.NewHandler()
	lh := httpadp.NewLoanHandler(loanSvc)
	lch := httpadp.NewLifecycleHandler(lifecycleSvc)
	nh := httpadp.NewNotificationHandler(notifications)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())
	e.Use(middleware.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	// routes
	e.GET("/health", h.Health)

	e.POST("/loans", lh.CreateLoan)
	e.GET("/loans", lh.ListLoans)
	e.GET("/loans/:loan_id", lh.GetLoan)
	e.GET("/loans/:loan_id/due", lh.GetDue)

	e.POST("/loans/:loan_id/activate", lch.Activate)
	e.POST("/loans/:loan_id/repayment", lch.DeclareRepayment)
	e.POST("/loans/:loan_id/delay", lch.RequestDelay)
	e.POST("/loans/:loan_id/delay/response", lch.RespondToDelay)
	e.POST("/loans/:loan_id/payment/confirmation", lch.ConfirmPayment)

	e.GET("/notifications", nh.List)
	e.POST("/notifications/:notification_id/read", nh.MarkRead)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
