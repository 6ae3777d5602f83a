package main

import (
	"orderledger/internal/config"
	"orderledger/internal/event"
	"orderledger/internal/handler"
	"orderledger/internal/infra/db"
	infraRepo "orderledger/internal/infra/repository"
	"orderledger/internal/middleware"
	"orderledger/internal/server"
	"orderledger/internal/usecase"
	"orderledger/internal/validator"

	"github.com/labstack/gommon/log"
)

func main() {
	logger := log.New("orderledger")
	logger.SetHeader(`${time_rfc3339} ${level} ${prefix}`)

	//設定（.envがあれば読む）
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		logger.Fatal(err)
	}
	if cfg.GoEnv == "dev" {
		logger.SetLevel(log.DEBUG)
	} else {
		logger.SetLevel(log.INFO)
	}

	//DB接続
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		logger.Fatal(err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal(err)
	}

	txm := infraRepo.NewTxManagerGorm(gormDB)
	clock := usecase.SystemClock{}

	//ブローカーのproducerは未接続なので追記ログへ
	publisher, err := event.NewFileLogPublisher(cfg.EventTopic, cfg.EventLogDir, logger)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infoj(log.JSON{
		"event": "publisher_ready",
		"topic": publisher.Topic(),
		"sink":  string(publisher.Sink()),
		"path":  publisher.LogPath(),
	})

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(txm, publisher, clock, logger)
	catalogUC := usecase.NewCatalogUsecase(txm, validator.NewCatalogValidator(), clock)

	//Handler生成
	handlers := server.Handlers{
		Customers: handler.NewCustomerHandler(catalogUC, orderUC),
		Products:  handler.NewProductHandler(catalogUC),
		Orders:    handler.NewOrderHandler(orderUC),
	}

	writeMW := middleware.WriteGuards(cfg.JWTSecret)
	if len(writeMW) == 0 {
		logger.Warn("JWT_SECRET not set: write routes are not protected")
	}

	//Server起動
	e := server.New(logger, handlers, writeMW...)
	if err := server.Start(cfg.Addr(), e); err != nil {
		logger.Fatal(err)
	}
}
