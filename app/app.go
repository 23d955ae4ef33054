package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/amits-library/library-service/config"
	"github.com/amits-library/library-service/internal/handler"
	"github.com/amits-library/library-service/internal/repository"
	"github.com/amits-library/library-service/internal/server"
	"github.com/amits-library/library-service/internal/service"
	"github.com/amits-library/library-service/migrations"
	"github.com/amits-library/library-service/pkg/kafka"
	"github.com/amits-library/library-service/pkg/logger"
	"github.com/amits-library/library-service/pkg/postgres"
)

func Run(cfg config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}

	bookRepo, err := repository.NewBookRepository(db, log)
	if err != nil {
		log.Fatal("book repo", zap.Error(err))
	}
	borrowRepo, err := repository.NewBorrowRepository(db, log)
	if err != nil {
		log.Fatal("borrow repo", zap.Error(err))
	}

	inventorySvc := service.NewInventoryService(bookRepo, log)
	lendingSvc := service.NewLendingService(borrowRepo, inventorySvc, log)

	var producer sarama.SyncProducer
	if cfg.Kafka.Enabled() {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
	}

	h := handler.New(inventorySvc, lendingSvc, handler.NewEnqueuer(producer), log, cfg.Development())
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if producer != nil {
		_ = producer.Close()
	}
	if err := db.Close(); err != nil {
		log.Error("db.Close", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}
