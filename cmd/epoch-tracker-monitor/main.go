package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xcoulter/Solana-Epoch-Tracker/config"
	"github.com/xcoulter/Solana-Epoch-Tracker/internal/epoch"
	"github.com/xcoulter/Solana-Epoch-Tracker/internal/stats"
	"github.com/xcoulter/Solana-Epoch-Tracker/internal/txvolume"
	"github.com/xcoulter/Solana-Epoch-Tracker/internal/watcher"
)

const (
	defaultInterval = 1 * time.Minute
)

var (
	env                 = flag.String("env", "", "the environment to track (mainnet-beta, testnet, devnet)")
	rpcURL              = flag.String("rpc-url", "", "override the RPC endpoint for the selected environment")
	interval            = flag.Duration("interval", defaultInterval, "interval to execute watcher ticks")
	samples             = flag.Int("samples", 5, "number of slot observations for the duration measurement")
	sampleInterval      = flag.Duration("sample-interval", 2*time.Second, "delay between slot observations")
	stride              = flag.Uint64("stride", 1000, "distance in slots between sampled blocks for volume estimation")
	dbPath              = flag.String("db", "epoch-stats.db", "path to the stats database")
	recordSlotThreshold = flag.Uint64("record-slot-threshold", 10, "record the previous epoch only while the current slot index is below this")
	slackWebhookURL     = flag.String("slack-webhook-url", "", "The Slack webhook URL to announce epoch changes")
	verbose             = flag.Bool("verbose", false, "enable verbose logging")
	showVersion         = flag.Bool("version", false, "Print the version of the epoch-tracker-monitor and exit")
	metricsAddr         = flag.String("metrics-addr", ":8080", "Address to listen on for prometheus metrics")

	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
		os.Exit(0)
	}

	// Initialize logger.
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Initialize network config and RPC endpoint.
	var networkConfig *config.NetworkConfig
	if *env == "" {
		if *rpcURL == "" {
			log.Error("Missing required flag", "flag", "env")
			flag.Usage()
			os.Exit(1)
		}
		networkConfig = &config.NetworkConfig{
			Env:           "custom",
			RPCURL:        *rpcURL,
			SlotsPerEpoch: config.DefaultSlotsPerEpoch,
		}
	} else {
		var err error
		networkConfig, err = config.NetworkConfigForEnv(*env)
		if err != nil {
			log.Error("Failed to get network config", "error", err)
			flag.Usage()
			os.Exit(1)
		}
		if *rpcURL != "" {
			networkConfig.RPCURL = *rpcURL
		}
	}

	rpcClient := solanarpc.New(networkConfig.RPCURL)

	// Initialize prometheus metrics server.
	metrics := watcher.NewMetrics()
	metrics.Register(prometheus.DefaultRegisterer)
	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
	go func() {
		listener, err := net.Listen("tcp", *metricsAddr)
		if err != nil {
			log.Error("Failed to start prometheus metrics server listener", "error", err)
			return
		}
		log.Info("Prometheus metrics server listening", "address", listener.Addr().String())
		http.Handle("/metrics", promhttp.Handler())
		if err := http.Serve(listener, nil); err != nil {
			log.Error("Failed to start prometheus metrics server", "error", err)
		}
	}()

	// Initialize estimators and the stats store.
	durations, err := epoch.NewDurationEstimator(&epoch.DurationEstimatorConfig{
		Logger:         log,
		Client:         rpcClient,
		SampleCount:    *samples,
		SampleInterval: *sampleInterval,
	})
	if err != nil {
		log.Error("Failed to create slot duration estimator", "error", err)
		os.Exit(1)
	}

	volume, err := txvolume.NewEstimator(&txvolume.EstimatorConfig{
		Logger:       log,
		Client:       rpcClient,
		SampleStride: *stride,
	})
	if err != nil {
		log.Error("Failed to create volume estimator", "error", err)
		os.Exit(1)
	}

	store, err := stats.Open(&stats.StoreConfig{
		Logger: log,
		Path:   *dbPath,
	})
	if err != nil {
		log.Error("Failed to open stats store", "error", err, "path", *dbPath)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize InfluxDB writer.
	var influxClient influxdb2.Client
	var influxWriter watcher.InfluxWriter
	var influxURL, influxToken, influxOrg, influxBucket string

	// Check whether writing to InfluxDB should be enabled.
	enableInflux := func() bool {
		influxURL = os.Getenv("INFLUX_URL")
		influxToken = os.Getenv("INFLUX_TOKEN")
		if influxURL == "" {
			log.Info("INFLUX_URL not set, not enabling writes to InfluxDB")
			return false
		}
		if influxToken == "" {
			log.Info("INFLUX_TOKEN not set, not enabling writes to InfluxDB")
			return false
		}
		influxOrg = os.Getenv("INFLUX_ORG")
		if influxOrg == "" {
			influxOrg = "primary"
		}
		influxBucket = os.Getenv("INFLUX_BUCKET")
		if influxBucket == "" {
			influxBucket = "epoch-tracker-" + networkConfig.Env
		}
		return true
	}

	if enableInflux() {
		influxClient = influxdb2.NewClient(influxURL, influxToken)
		influxWriter = influxClient.WriteAPI(influxOrg, influxBucket)
		defer influxClient.Close()
	}

	// Initialize the watcher.
	w, err := watcher.NewEpochWatcher(&watcher.Config{
		Logger:              log,
		Metrics:             metrics,
		Env:                 networkConfig.Env,
		RPCClient:           rpcClient,
		Durations:           durations,
		Volume:              volume,
		Stats:               store,
		Interval:            *interval,
		RecordSlotThreshold: *recordSlotThreshold,
		SlackWebhookURL:     *slackWebhookURL,
		InfluxWriter:        influxWriter,
	})
	if err != nil {
		log.Error("Failed to create watcher", "error", err)
		os.Exit(1)
	}

	// Start the watcher.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = w.Run(ctx)
	if err != nil {
		log.Error("Failed to run watcher", "error", err)
		os.Exit(1)
	}
}
