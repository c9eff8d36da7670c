package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/aevoninc/horizonfit/apps/api/echo"
	"github.com/aevoninc/horizonfit/core"
	"github.com/aevoninc/horizonfit/core/catalog"
	"github.com/aevoninc/horizonfit/core/metrics"
	"github.com/aevoninc/horizonfit/core/progress"
	"github.com/aevoninc/horizonfit/core/user"
	emailsvc "github.com/aevoninc/horizonfit/services/email"
	logsvc "github.com/aevoninc/horizonfit/services/logger"
	"github.com/aevoninc/horizonfit/storage/database"
	sqlxrepos "github.com/aevoninc/horizonfit/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!core.Conf.Debug)

	if err := run(logger); err != nil {
		logger.Fatal("starting api", err)
	}
}

func run(logger core.Logger) error {
	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		return err
	}
	defer db.Close()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc)
	catalogSvc := catalog.NewService(sqlxrepos.NewCatalogRepository(db))
	metricsRepo := sqlxrepos.NewMetricsRepository(db)
	metricsSvc := metrics.NewService(metricsRepo)
	progressSvc := progress.NewService(
		sqlxrepos.NewProgressRepository(db), usrRepo, catalogSvc, metricsRepo, metricsSvc)

	app := echoapi.NewServer(&echoapi.Options{
		Address:     core.Conf.Server.Host + ":" + core.Conf.Server.Port,
		Logger:      logger,
		MailSvc:     mailSvc,
		UserSvc:     usrSvc,
		CatalogSvc:  catalogSvc,
		MetricsSvc:  metricsSvc,
		ProgressSvc: progressSvc,
	})

	serverErrors := make(chan error, 1)
	go func() { serverErrors <- app.Start() }()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		logger.Info("shutdown started", map[string]interface{}{"signal": sig.String()})

		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Stop(ctx); err != nil {
			return err
		}
	}
	return nil
}
