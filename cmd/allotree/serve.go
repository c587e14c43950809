package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gordian-engine/allotree/aquic"
	"github.com/gordian-engine/allotree/aserve"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func runServe(ctx context.Context, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	in := fs.String("in", "", "allocations JSON file")
	listen := fs.String("listen", "127.0.0.1:7420", "UDP address for the QUIC listener")
	certFile := fs.String("cert", "", "TLS certificate PEM file")
	keyFile := fs.String("key", "", "TLS private key PEM file")
	metricsAddr := fs.String("metrics", "", "HTTP address for prometheus metrics; empty disables")
	streamTimeout := fs.Duration("stream-timeout", 5*time.Second, "per-request stream deadline")
	cacheSize := fs.Int("cache-size", 1024, "number of proofs cached")
	cacheTTL := fs.Duration("cache-ttl", 10*time.Minute, "lifetime of a cached proof")
	otlpEndpoint := fs.String("otlp-endpoint", "", "host:port of an OTLP/HTTP trace collector; empty disables tracing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *certFile == "" || *keyFile == "" {
		return errors.New("-cert and -key are required")
	}

	tree, err := loadTree("in", *in)
	if err != nil {
		return err
	}

	cert, err := tls.LoadX509KeyPair(*certFile, *keyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS key pair: %w", err)
	}
	tlsConf := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{aserve.ALPN},
		MinVersion:   tls.VersionTLS13,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cfg := aserve.ServerConfig{
		StreamTimeout: *streamTimeout,
		CacheSize:     *cacheSize,
		CacheTTL:      *cacheTTL,
		Metrics:       aserve.NewMetrics(reg),
	}

	if *otlpEndpoint != "" {
		exp, err := otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpoint(*otlpEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}

		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn("Failed to flush traces", "err", err)
			}
		}()
		cfg.TracerProvider = tp
	}

	s := aserve.NewServer(log.With("sys", "server"), tree, cfg)

	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Metrics server stopped", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// SIGHUP reloads the allocations file, for publishing a new wave.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				t, err := loadTree("in", *in)
				if err != nil {
					log.Warn("Failed to reload allocations; keeping current tree", "err", err)
					continue
				}
				s.SetTree(t)
			}
		}
	}()

	l, err := aquic.Listen(*listen, tlsConf, nil)
	if err != nil {
		return err
	}
	defer l.Close()

	log.Info("Serving proofs", "addr", l.Addr().String(), "root", tree.RootHex())
	return s.Serve(ctx, l)
}
