package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rocketscienceinc/reflexduel-backend/internal/config"
	"github.com/rocketscienceinc/reflexduel-backend/internal/metrics"
	"github.com/rocketscienceinc/reflexduel-backend/internal/repository"
	"github.com/rocketscienceinc/reflexduel-backend/internal/repository/storage"
	"github.com/rocketscienceinc/reflexduel-backend/internal/room"
	"github.com/rocketscienceinc/reflexduel-backend/transport/rest"
	"github.com/rocketscienceinc/reflexduel-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the relay server application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	recordRepo := repository.NewMatchRecordRepository(redisStorage.Connection)

	clock := clockwork.NewRealClock()
	rooms := room.NewManager(logger, clock, conf.Room.IdleTTL)

	go rooms.RunSweeper(ctx, conf.Room.SweepInterval)

	registry := prometheus.NewRegistry()
	relayMetrics := metrics.New(registry)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		handlers := rest.NewHandlers(rooms, recordRepo)
		if httpErr := rest.Start(conf.HTTPPort, handlers, registry); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run relay WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, rooms, relayMetrics)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("relay server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("relay server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
