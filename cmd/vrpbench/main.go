// Command vrpbench benchmarks the ruin-and-recreate search on YAML instances
// and optionally serves results, metrics and live events over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"vrpsearch/internal/api"
	"vrpsearch/internal/bench"
	"vrpsearch/internal/buildinfo"
	"vrpsearch/internal/config"
	"vrpsearch/internal/metrics"
	"vrpsearch/internal/problem"
	"vrpsearch/internal/store"
	"vrpsearch/internal/webhooks"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("vrpbench failed")
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "algorithm configuration (YAML)")
	runs := flag.Int("runs", 5, "searches per instance")
	parallel := flag.Int("parallel", 2, "instances benchmarked concurrently")
	listen := flag.Bool("listen", false, "keep serving the HTTP API after the benchmark")
	verbose := flag.Bool("v", false, "debug logging")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.String())
		return nil
	}

	cfg := config.Default()
	if *cfgPath != "" {
		c, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	if *verbose {
		lvl = log.DebugLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.StandardLogger()

	var instances []*problem.Instance
	for _, path := range flag.Args() {
		inst, err := problem.Load(path)
		if err != nil {
			return err
		}
		instances = append(instances, inst)
	}
	if len(instances) == 0 && !*listen {
		return errors.New("no instance files given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.RegisterDefault()
	srv, err := api.NewServer(ctx, logger)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	defer srv.Close()
	srv.Algorithm = cfg

	var httpSrv *http.Server
	if *listen {
		addr := ":8080"
		if v := os.Getenv("PORT"); v != "" {
			addr = ":" + v
		}
		httpSrv = &http.Server{
			Addr:              addr,
			Handler:           logMiddleware(logger, srv.Handler()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.WithField("addr", addr).Info("API listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("server error")
				stop()
			}
		}()
	}

	if len(instances) > 0 {
		writers := []store.Writer{srv.Store}
		if wh := webhooks.NewPublisherFromEnv(logger); wh != nil {
			writers = append(writers, wh)
		}
		runner := &bench.Runner{
			Algorithm:   cfg,
			Runs:        *runs,
			Parallelism: *parallel,
			Writers:     writers,
			Broker:      srv.Broker,
			Metrics:     metrics.Default,
			Logger:      logger,
		}
		results, err := runner.Run(ctx, instances)
		if err != nil {
			return err
		}
		printSummary(results)
	}

	if httpSrv == nil {
		return nil
	}
	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdown)
}

func printSummary(results []store.Result) {
	fmt.Printf("%-20s %6s %12s %12s %10s %8s %10s\n", "instance", "runs", "cost(min)", "cost(mean)", "stddev", "veh", "delta%")
	for _, r := range results {
		delta := "-"
		if r.DeltaPct != nil {
			delta = fmt.Sprintf("%.2f", *r.DeltaPct)
		}
		fmt.Printf("%-20s %6d %12.2f %12.2f %10.2f %8.2f %10s\n", r.Instance, r.Runs, r.CostMin, r.CostMean, r.CostStdDev, r.VehiclesMean, delta)
	}
}

func logMiddleware(l log.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Info("request")
	})
}
