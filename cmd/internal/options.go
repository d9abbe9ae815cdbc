// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/googleapis/automl-notebook-server/internal/auth/google"
	"github.com/googleapis/automl-notebook-server/internal/automl"
	"github.com/googleapis/automl-notebook-server/internal/log"
	"github.com/googleapis/automl-notebook-server/internal/server"
	"github.com/googleapis/automl-notebook-server/internal/telemetry"
	"github.com/googleapis/automl-notebook-server/internal/util"
)

type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// ServerOptions holds dependencies shared by all commands.
type ServerOptions struct {
	IOStreams IOStreams
	Logger    log.Logger
	// Cfg is the effective configuration: flags overridden by the config file.
	Cfg        server.ServerConfig
	ConfigFile string

	// flagCfg is Cfg as set by flags alone, the base reloads start from.
	flagCfg server.ServerConfig
}

// Option defines a function that modifies the ServerOptions struct.
type Option func(*ServerOptions)

// NewServerOptions creates a new instance with defaults, then applies any
// provided options.
func NewServerOptions(opts ...Option) *ServerOptions {
	o := &ServerOptions{
		IOStreams: IOStreams{
			In:     os.Stdin,
			Out:    os.Stdout,
			ErrOut: os.Stderr,
		},
	}

	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithIOStreams updates the IO streams.
func WithIOStreams(out, err io.Writer) Option {
	return func(o *ServerOptions) {
		o.IOStreams.Out = out
		o.IOStreams.ErrOut = err
	}
}

// Setup create logger and telemetry instrumentations.
func (opts *ServerOptions) Setup(ctx context.Context) (context.Context, func(context.Context) error, error) {
	logger, err := log.NewLogger(opts.Cfg.LoggingFormat.String(), opts.Cfg.LogLevel.String(), opts.IOStreams.Out, opts.IOStreams.ErrOut)
	if err != nil {
		return ctx, nil, fmt.Errorf("unable to initialize logger: %w", err)
	}

	ctx = util.WithLogger(ctx, logger)
	opts.Logger = logger

	// Set up OpenTelemetry
	otelShutdown, err := telemetry.SetupOTel(ctx, telemetry.Options{
		Version:     opts.Cfg.Version,
		ServiceName: opts.Cfg.TelemetryServiceName,
		OTLP:        opts.Cfg.TelemetryOTLP,
		GCP:         opts.Cfg.TelemetryGCP,
	})
	if err != nil {
		errMsg := fmt.Errorf("error setting up OpenTelemetry: %w", err)
		logger.ErrorContext(ctx, errMsg.Error())
		return ctx, nil, errMsg
	}

	shutdownFunc := func(ctx context.Context) error {
		err := otelShutdown(ctx)
		if err != nil {
			errMsg := fmt.Errorf("error shutting down OpenTelemetry: %w", err)
			logger.ErrorContext(ctx, errMsg.Error())
			return err
		}
		return nil
	}

	instrumentation, err := telemetry.CreateTelemetryInstrumentation(opts.Cfg.Version)
	if err != nil {
		errMsg := fmt.Errorf("unable to create telemetry instrumentation: %w", err)
		logger.ErrorContext(ctx, errMsg.Error())
		return ctx, shutdownFunc, errMsg
	}

	ctx = util.WithInstrumentation(ctx, instrumentation)

	return ctx, shutdownFunc, nil
}

// LoadConfig applies the config file, if one is set, on top of the flags.
// It reports whether a config file was loaded.
func (opts *ServerOptions) LoadConfig(ctx context.Context) (bool, error) {
	opts.flagCfg = opts.Cfg
	if opts.ConfigFile == "" {
		return false, nil
	}

	logger, err := util.LoggerFromContext(ctx)
	if err != nil {
		return true, err
	}

	fileCfg, err := LoadConfigFile(opts.ConfigFile)
	if err != nil {
		errMsg := fmt.Errorf("unable to load config file at %q: %w", opts.ConfigFile, err)
		logger.ErrorContext(ctx, errMsg.Error())
		return true, errMsg
	}
	opts.Cfg.ApplyFile(fileCfg)
	logger.InfoContext(ctx, fmt.Sprintf("Loaded config file %s", opts.ConfigFile))
	return true, nil
}

// Reloaded returns the configuration resulting from the flags and a
// reloaded config file.
func (opts *ServerOptions) Reloaded(f server.FileConfig) server.ServerConfig {
	cfg := opts.flagCfg
	cfg.ApplyFile(f)
	return cfg
}

// ClientFactory returns the factory of AutoML clients for cfg.
func ClientFactory(ctx context.Context, cfg server.ServerConfig) automl.ClientFactory {
	clientCfg := automl.ClientConfig{Endpoint: cfg.Endpoint}
	if instrumentation, err := util.InstrumentationFromContext(ctx); err == nil {
		clientCfg.Tracer = instrumentation.Tracer
	}
	return automl.NewGRPCClientFactory(clientCfg)
}

// NewAccessor returns the accessor shared by the request handlers, backed by
// Application Default Credentials.
func (opts *ServerOptions) NewAccessor(ctx context.Context) *automl.Accessor {
	creds := google.NewProvider(opts.Cfg.Project)
	return automl.NewAccessor(creds, ClientFactory(ctx, opts.Cfg), opts.Cfg.Location)
}
