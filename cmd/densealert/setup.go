package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/hupe1980/densealert"
	"github.com/hupe1980/densealert/blobstore"
	miniostore "github.com/hupe1980/densealert/blobstore/minio"
	s3store "github.com/hupe1980/densealert/blobstore/s3"
	"github.com/hupe1980/densealert/codec"
	promcollector "github.com/hupe1980/densealert/metrics/prometheus"
	"github.com/hupe1980/densealert/resource"
	"github.com/hupe1980/densealert/sink"
	ddbsink "github.com/hupe1980/densealert/sink/dynamodb"
)

// setup turns the global flags into detector options. The returned cleanup
// stops the metrics server.
func setup(c *cli.Context, verbose bool) ([]densealert.Option, func(), error) {
	ctx := c.Context
	cleanup := func() {}

	logger, err := newLogger(c)
	if err != nil {
		return nil, cleanup, err
	}
	opts := []densealert.Option{densealert.WithLogger(logger)}

	if addr := c.String("metrics-addr"); addr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, densealert.WithMetricsCollector(promcollector.New(reg)))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		cleanup = func() {
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdown)
		}
	}

	sinks, err := buildSinks(ctx, c)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	if verbose {
		sinks = append(sinks, printSink(c))
	}
	if len(sinks) > 0 {
		var s sink.Sink = sink.NewMulti(sinks...)
		if rate := c.Float64("report-rate"); rate > 0 {
			s = sink.NewThrottled(s, resource.NewController(resource.Config{
				MaxConcurrentWrites: 1,
				WritesPerSec:        rate,
			}))
		}
		opts = append(opts, densealert.WithSink(s))
	}
	return opts, cleanup, nil
}

func newLogger(c *cli.Context) (*densealert.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.String("log-format")) {
	case "json":
		return densealert.NewLogger(slog.NewJSONHandler(c.App.ErrWriter, handlerOpts)), nil
	case "text", "":
		return densealert.NewLogger(slog.NewTextHandler(c.App.ErrWriter, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q", c.String("log-format"))
	}
}

func buildSinks(ctx context.Context, c *cli.Context) ([]sink.Sink, error) {
	cdc, ok := codec.ByName(c.String("report-codec"))
	if !ok {
		return nil, fmt.Errorf("invalid --report-codec %q", c.String("report-codec"))
	}
	compression, err := sink.ParseCompression(c.String("report-compression"))
	if err != nil {
		return nil, fmt.Errorf("invalid --report-compression: %w", err)
	}
	blobCfg := sink.BlobConfig{
		Prefix:      c.String("report-prefix"),
		Codec:       cdc,
		Compression: compression,
	}

	var stores []blobstore.Store
	if dir := c.String("report-dir"); dir != "" {
		stores = append(stores, blobstore.NewLocalStore(dir))
	}
	if endpoint := c.String("minio-endpoint"); endpoint != "" {
		bucket := c.String("minio-bucket")
		if bucket == "" {
			return nil, errors.New("--minio-bucket is required with --minio-endpoint")
		}
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(c.String("minio-access-key"), c.String("minio-secret-key"), ""),
			Secure: c.Bool("minio-secure"),
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		stores = append(stores, miniostore.NewStore(client, bucket, ""))
	}

	bucket, table := c.String("s3-bucket"), c.String("ddb-table")
	var sinks []sink.Sink
	if bucket != "" || table != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		if bucket != "" {
			stores = append(stores, s3store.NewStore(awss3.NewFromConfig(awsCfg), bucket, ""))
		}
		if table != "" {
			sinks = append(sinks, ddbsink.NewSink(awsdynamodb.NewFromConfig(awsCfg), table, c.String("stream-name")))
		}
	}

	for _, store := range stores {
		b, err := sink.NewBlob(store, blobCfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, b)
	}
	return sinks, nil
}

// printSink writes each block change to the command's output.
func printSink(c *cli.Context) sink.Sink {
	return sink.Func(func(_ context.Context, r sink.Report) error {
		_, err := fmt.Fprintf(c.App.Writer, "change density=%.6f block=%s\n", r.Density, formatBlock(r.Block))
		return err
	})
}

func formatBlock(block [][]string) string {
	parts := make([]string, len(block))
	for m, ids := range block {
		parts[m] = "[" + strings.Join(ids, " ") + "]"
	}
	return strings.Join(parts, "")
}
