// Command densealert detects dense blocks in weighted tuple streams read
// from CSV.
//
//	densealert stream --order 3 events.csv
//	densealert window --order 2 --span 1h logins.csv
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "densealert",
		Usage: "incremental dense-block detection over weighted tuple streams",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug|info|warn|error)",
				EnvVars: []string{"DENSEALERT_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "log format (text|json)",
				EnvVars: []string{"DENSEALERT_LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "serve Prometheus metrics on this address, e.g. :9090",
				EnvVars: []string{"DENSEALERT_METRICS_ADDR"},
			},
			&cli.StringFlag{
				Name:    "report-dir",
				Usage:   "store block reports in this directory",
				EnvVars: []string{"DENSEALERT_REPORT_DIR"},
			},
			&cli.StringFlag{
				Name:    "report-prefix",
				Value:   "reports",
				Usage:   "blob name prefix of stored reports",
				EnvVars: []string{"DENSEALERT_REPORT_PREFIX"},
			},
			&cli.StringFlag{
				Name:    "report-codec",
				Value:   "go-json",
				Usage:   "report encoding (json|go-json|msgpack)",
				EnvVars: []string{"DENSEALERT_REPORT_CODEC"},
			},
			&cli.StringFlag{
				Name:    "report-compression",
				Value:   "none",
				Usage:   "report compression (none|zstd|lz4)",
				EnvVars: []string{"DENSEALERT_REPORT_COMPRESSION"},
			},
			&cli.Float64Flag{
				Name:    "report-rate",
				Usage:   "maximum reports published per second (0 = unlimited)",
				EnvVars: []string{"DENSEALERT_REPORT_RATE"},
			},
			&cli.StringFlag{
				Name:    "minio-endpoint",
				Usage:   "MinIO endpoint for report storage",
				EnvVars: []string{"MINIO_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:    "minio-bucket",
				Usage:   "MinIO bucket for report storage",
				EnvVars: []string{"MINIO_BUCKET"},
			},
			&cli.StringFlag{
				Name:    "minio-access-key",
				EnvVars: []string{"MINIO_ACCESS_KEY"},
			},
			&cli.StringFlag{
				Name:    "minio-secret-key",
				EnvVars: []string{"MINIO_SECRET_KEY"},
			},
			&cli.BoolFlag{
				Name:    "minio-secure",
				Usage:   "use TLS for MinIO",
				EnvVars: []string{"MINIO_SECURE"},
			},
			&cli.StringFlag{
				Name:    "s3-bucket",
				Usage:   "S3 bucket for report storage (credentials from the default AWS chain)",
				EnvVars: []string{"DENSEALERT_S3_BUCKET"},
			},
			&cli.StringFlag{
				Name:    "ddb-table",
				Usage:   "DynamoDB table receiving one item per report",
				EnvVars: []string{"DENSEALERT_DDB_TABLE"},
			},
			&cli.StringFlag{
				Name:    "stream-name",
				Value:   "densealert",
				Usage:   "stream name used as DynamoDB partition key",
				EnvVars: []string{"DENSEALERT_STREAM_NAME"},
			},
		},
		Commands: []*cli.Command{
			streamCommand(),
			windowCommand(),
		},
	}
}
