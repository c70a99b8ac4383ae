package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/chainflow/token-relay/config"
	"github.com/chainflow/token-relay/db"
	"github.com/chainflow/token-relay/ethclient"
	"github.com/chainflow/token-relay/logging"
	"github.com/chainflow/token-relay/oracle"
	"github.com/chainflow/token-relay/presenter"
	"github.com/chainflow/token-relay/relay"
	"github.com/chainflow/token-relay/repository"
)

func main() {
	logger := logging.New()

	cfgPath := os.Getenv("RELAY_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yml"
	}
	cfg, err := config.ReadConfigFromFile(cfgPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Fatal("can't parse log level")
	}
	logger.SetLevel(level)

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err2 := http.ListenAndServe(cfg.Metrics.Host, nil)
		if err2 != nil {
			logger.WithError(err2).Fatal("can't start listener for prometheus metrics")
		}
	}()

	repo := repository.NewRepo(dbConn)
	if cfg.Presenter != nil {
		pr := presenter.NewPresenter(logger.WithField("service", "presenter"), repo, cfg.Presenter)
		go func() {
			err2 := pr.Serve(cfg.Presenter.Host)
			if err2 != nil {
				logger.WithError(err2).Fatal("can't serve presenter")
			}
		}()
	}

	sourceClient, err := ethclient.NewClient(cfg.Relay.Source.RPC.Host, cfg.Relay.Source.RPC.Timeout.Duration(), cfg.Relay.Source.ChainID)
	if err != nil {
		logger.WithError(err).Fatal("can't dial source chain rpc")
	}
	destClient, err := ethclient.NewClient(cfg.Relay.Destination.RPC.Host, cfg.Relay.Destination.RPC.Timeout.Duration(), cfg.Relay.Destination.ChainID)
	if err != nil {
		logger.WithError(err).Fatal("can't dial destination chain rpc")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r, err := relay.NewRelay(logger.WithField("service", "relay"), repo, cfg.Relay, sourceClient, destClient, oracle.NewOracle(cfg.Oracle))
	if err != nil {
		logger.WithError(err).Fatal("can't initialize relay")
	}
	r.Start(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	for range c {
		cancel()
		logger.Warn("caught CTRL-C, gracefully terminating")
		return
	}
}
