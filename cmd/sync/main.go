// Package main is the campaignsync entry point. It runs one sync and exits,
// or serves scheduled invocations when started by AWS Lambda.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/pflag"
	"google.golang.org/api/option"

	"github.com/peteski22/campaignsync/internal/config"
	"github.com/peteski22/campaignsync/internal/googleauth"
	"github.com/peteski22/campaignsync/internal/mailjet"
	"github.com/peteski22/campaignsync/internal/sheets"
	"github.com/peteski22/campaignsync/internal/storage"
	"github.com/peteski22/campaignsync/internal/sync"
)

// lambdaFunctionEnv is set by the Lambda runtime.
const lambdaFunctionEnv = "AWS_LAMBDA_FUNCTION_NAME"

// options holds the command line flags of a sync run.
type options struct {
	dryRun   bool
	logLevel string
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "init":
			exitOnError(runInit())
			return
		case "auth":
			exitOnError(runAuth(context.Background()))
			return
		}
	}

	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if os.Getenv(lambdaFunctionEnv) != "" {
		lambda.Start(func(ctx context.Context) (*sync.Result, error) {
			return runSync(ctx, opts)
		})
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	_, err = runSync(ctx, opts)
	stop()
	if err != nil {
		slog.Error("sync failed", "error", err)
		os.Exit(1)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// parseFlags parses the flags of a sync run.
func parseFlags(args []string) (options, error) {
	var opts options

	flags := pflag.NewFlagSet("campaignsync", pflag.ContinueOnError)
	flags.BoolVar(&opts.dryRun, "dry-run", false, "log spreadsheet writes instead of executing them")
	flags.StringVar(&opts.logLevel, "log-level", "", "minimum log level, overrides "+config.EnvLogLevel)

	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	if flags.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}

	return opts, nil
}

// runSync loads the configuration, wires the clients and runs one sync.
func runSync(ctx context.Context, opts options) (*sync.Result, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		if level, err = config.ParseLogLevel(opts.logLevel); err != nil {
			return nil, err
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var awsCfg aws.Config
	if cfg.Google.TokenSecretARN != "" || cfg.SSM.ParameterName != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
	}

	tokenStore, err := newTokenStore(cfg.Google, awsCfg)
	if err != nil {
		return nil, err
	}

	oauthCfg := googleauth.Config(cfg.Google.ClientID, cfg.Google.ClientSecret, "")
	httpClient, err := googleauth.NewHTTPClient(ctx, oauthCfg, tokenStore, logger)
	if err != nil {
		return nil, fmt.Errorf("creating Google client: %w", err)
	}

	store, err := sheets.NewClient(ctx, cfg.Sheets.SpreadsheetID, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}

	reporting, err := mailjet.NewClient(
		cfg.Mailjet.PublicKey,
		cfg.Mailjet.PrivateKey,
		mailjet.WithBaseURL(cfg.Mailjet.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating mailjet client: %w", err)
	}

	recorder, err := newRecorder(cfg.SSM, awsCfg, opts.dryRun)
	if err != nil {
		return nil, err
	}

	svc, err := sync.New(sync.Config{
		DryRun:      opts.dryRun,
		Logger:      logger,
		Recorder:    recorder,
		Reporting:   reporting,
		SheetPrefix: cfg.Sheets.Prefix,
		Store:       store,
	})
	if err != nil {
		return nil, fmt.Errorf("creating sync service: %w", err)
	}

	return svc.Run(ctx)
}

// newTokenStore keeps the token in Secrets Manager when an ARN is configured,
// and in the local credential cache file otherwise.
func newTokenStore(cfg config.Google, awsCfg aws.Config) (googleauth.TokenStore, error) {
	if cfg.TokenSecretARN != "" {
		store, err := storage.NewSecretTokenStore(secretsmanager.NewFromConfig(awsCfg), cfg.TokenSecretARN)
		if err != nil {
			return nil, fmt.Errorf("creating secret token store: %w", err)
		}
		return store, nil
	}

	store, err := storage.NewFileTokenStore(cfg.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("creating file token store: %w", err)
	}
	return store, nil
}

// newRecorder returns the SSM run marker, or a recorder that discards runs
// when no parameter is configured or the run is a dry run.
func newRecorder(cfg config.SSM, awsCfg aws.Config, dryRun bool) (sync.RunRecorder, error) {
	if cfg.ParameterName == "" || dryRun {
		return storage.NoopRunRecorder{}, nil
	}

	marker, err := storage.NewRunMarker(ssm.NewFromConfig(awsCfg), cfg.ParameterName)
	if err != nil {
		return nil, fmt.Errorf("creating run marker: %w", err)
	}
	return marker, nil
}
