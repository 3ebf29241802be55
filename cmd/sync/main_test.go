package main

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/require"

	"github.com/peteski22/campaignsync/internal/config"
	"github.com/peteski22/campaignsync/internal/storage"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args        []string
		errContains string
		want        options
	}{
		"no flags": {
			args: nil,
			want: options{},
		},
		"dry run": {
			args: []string{"--dry-run"},
			want: options{dryRun: true},
		},
		"log level": {
			args: []string{"--log-level=debug", "--dry-run"},
			want: options{dryRun: true, logLevel: "debug"},
		},
		"unknown flag": {
			args:        []string{"--since=2024-01-01"},
			errContains: "unknown flag",
		},
		"positional argument": {
			args:        []string{"now"},
			errContains: "unexpected arguments: now",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := parseFlags(tc.args)
			if tc.errContains != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNewTokenStore(t *testing.T) {
	t.Parallel()

	t.Run("file store by default", func(t *testing.T) {
		t.Parallel()

		store, err := newTokenStore(config.Google{TokenPath: "/tmp/token.json"}, aws.Config{})
		require.NoError(t, err)

		fileStore, ok := store.(*storage.FileTokenStore)
		require.True(t, ok)
		require.Equal(t, "/tmp/token.json", fileStore.Path())
	})

	t.Run("secrets manager when an ARN is set", func(t *testing.T) {
		t.Parallel()

		store, err := newTokenStore(config.Google{
			TokenPath:      "/tmp/token.json",
			TokenSecretARN: "arn:aws:secretsmanager:eu-west-1:123456789012:secret:campaignsync",
		}, aws.Config{Region: "eu-west-1"})
		require.NoError(t, err)
		require.IsType(t, &storage.SecretTokenStore{}, store)
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		_, err := newTokenStore(config.Google{}, aws.Config{})
		require.ErrorContains(t, err, "token file path is required")
	})
}

func TestNewRecorder(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg      config.SSM
		dryRun   bool
		wantNoop bool
	}{
		"no parameter": {
			wantNoop: true,
		},
		"dry run": {
			cfg:      config.SSM{ParameterName: "/campaignsync/last-run"},
			dryRun:   true,
			wantNoop: true,
		},
		"parameter configured": {
			cfg: config.SSM{ParameterName: "/campaignsync/last-run"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			recorder, err := newRecorder(tc.cfg, aws.Config{Region: "eu-west-1"}, tc.dryRun)
			require.NoError(t, err)

			if tc.wantNoop {
				require.IsType(t, storage.NoopRunRecorder{}, recorder)
				return
			}
			require.IsType(t, &storage.RunMarker{}, recorder)
		})
	}
}
