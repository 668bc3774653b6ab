// Command twind runs the digital-twin simulation driver and its Modbus-TCP
// fieldbus gateway as a single process. Orchestration (wire config, start
// background tasks, wait for a signal, shut down in order) follows
// cmd/ratelimiter-api/main.go's shape: construct components, launch the
// periodic background task, block on os/signal, then unwind in reverse
// construction order.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pg-ot/dvwtp/internal/audit"
	"github.com/pg-ot/dvwtp/internal/config"
	"github.com/pg-ot/dvwtp/internal/driver"
	"github.com/pg-ot/dvwtp/internal/gateway"
	"github.com/pg-ot/dvwtp/internal/registermap"
	"github.com/pg-ot/dvwtp/internal/twin"

	"github.com/simonvetter/modbus"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	params := twin.DefaultParameters()
	if err := params.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid parameter set")
	}

	plant := twin.NewPlant(params, cfg.DamageModel)
	nominal := twin.NominalControls(params)
	dt := float64(cfg.DtMillis) / 1000.0
	if err := plant.Warmup(cfg.WarmupSteps, nominal, dt); err != nil {
		log.Fatal().Err(err).Msg("warmup failed")
	}
	log.Info().Int("steps", cfg.WarmupSteps).Bool("damage_model", cfg.DamageModel).Msg("warmup complete")

	naohReg := registermap.EncodeScaled(params.NaOHDoseNominal, registermap.ScaleNaOHDose)
	clReg := registermap.EncodeScaled(params.ClDoseNominal, registermap.ScaleClDose)
	qoutReg := registermap.EncodeScaled(params.QOutNominal, registermap.ScaleQOutSP)
	bank := gateway.NewBank(cfg.DamageModel, naohReg, clReg, qoutReg)

	var sink audit.Sink = audit.NoopSink{}
	if cfg.AuditRedis != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.AuditRedis})
		sink = audit.NewRedisSink(rdb, "twin.audit.writes", log)
		log.Info().Str("addr", cfg.AuditRedis).Msg("ephemeral audit trail enabled")
	}

	handler := gateway.NewHandler(bank, sink)
	url := fmt.Sprintf("tcp://%s:%d", cfg.Bind, cfg.Port)
	server, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        url,
		Timeout:    30 * time.Second,
		MaxClients: 16,
	}, handler)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct modbus server")
	}
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Str("url", url).Msg("failed to bind fieldbus listener")
	}
	log.Info().Str("url", url).Msg("fieldbus gateway listening")

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server stopped unexpectedly")
			}
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("prometheus metrics endpoint listening")
	}

	period := time.Duration(cfg.DtMillis) * time.Millisecond
	sim := driver.New(plant, bank, period, log)
	sim.Start()
	log.Info().Dur("period", period).Msg("simulation driver started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	sim.Stop()
	if err := server.Stop(); err != nil {
		log.Error().Err(err).Msg("error stopping fieldbus gateway")
	}
	log.Info().Msg("shutdown complete")
}
