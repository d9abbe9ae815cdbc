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

package cmd

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/googleapis/automl-notebook-server/cmd/internal"
	"github.com/googleapis/automl-notebook-server/internal/automl"
	"github.com/googleapis/automl-notebook-server/internal/server"
	"github.com/googleapis/automl-notebook-server/internal/util"
	"github.com/spf13/cobra"
)

var (
	// versionString stores the full semantic version, including build metadata.
	versionString string
	// versionNum indicates the numerical part fo the version
	//go:embed version.txt
	versionNum string
	// metadataString indicates additional build or distribution metadata.
	buildType string = "dev" // should be one of "dev", "binary", or "container"
	// commitSha is the git commit it was built from
	commitSha string
)

func init() {
	versionString = semanticVersion()
}

// semanticVersion returns the version of the CLI including a compile-time metadata.
func semanticVersion() string {
	metadataStrings := []string{buildType, runtime.GOOS, runtime.GOARCH}
	if commitSha != "" {
		metadataStrings = append(metadataStrings, commitSha)
	}
	v := strings.TrimSpace(versionNum) + "+" + strings.Join(metadataStrings, ".")
	return v
}

// GenerateCommand returns a new Command object with the specified IO streams
func GenerateCommand(out, err io.Writer) *cobra.Command {
	opts := internal.NewServerOptions(internal.WithIOStreams(out, err))
	return NewCommand(opts)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	opts := internal.NewServerOptions()

	if err := NewCommand(opts).Execute(); err != nil {
		os.Exit(1)
	}
}

// NewCommand returns a Command object representing an invocation of the CLI.
func NewCommand(opts *internal.ServerOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "automl-server",
		Short:         "Serves AutoML datasets, models and table statistics to notebooks.",
		Version:       versionString,
		SilenceErrors: true,
	}

	// Do not print Usage on runtime error
	cmd.SilenceUsage = true

	// Set server version
	opts.Cfg.Version = versionString

	// set baseCmd in, out and err the same as cmd.
	cmd.SetIn(opts.IOStreams.In)
	cmd.SetOut(opts.IOStreams.Out)
	cmd.SetErr(opts.IOStreams.ErrOut)

	// setup flags that are common across all commands
	internal.PersistentFlags(cmd, opts)

	flags := cmd.Flags()

	flags.StringVarP(&opts.Cfg.Address, "address", "a", "127.0.0.1", "Address of the interface the server will listen on.")
	flags.IntVarP(&opts.Cfg.Port, "port", "p", 5000, "Port the server will listen on.")
	flags.StringVar(&opts.Cfg.Project, "project", "", "Google Cloud project to list resources from. Defaults to the project of the Application Default Credentials.")
	flags.StringVar(&opts.Cfg.Location, "location", automl.DefaultLocation, "AutoML location to list resources from.")
	flags.StringVar(&opts.Cfg.Endpoint, "endpoint", "", "Overrides the AutoML service endpoint (host:port).")
	flags.StringVar(&opts.Cfg.BasePath, "base-path", server.DefaultBasePath, "Path the listing endpoints are served under.")
	flags.DurationVar(&opts.Cfg.RequestTimeout, "request-timeout", server.DefaultRequestTimeout, "Maximum duration of a single request.")
	flags.BoolVar(&opts.Cfg.DisableReload, "disable-reload", false, "Disables dynamic reloading of the config file.")
	flags.StringSliceVar(&opts.Cfg.AllowedOrigins, "allowed-origins", []string{"*"}, "Specifies a list of origins permitted to access this server. Defaults to '*'.")
	flags.StringSliceVar(&opts.Cfg.AllowedHosts, "allowed-hosts", []string{"*"}, "Specifies a list of hosts permitted to access this server. Defaults to '*'.")

	// wrap RunE command so that we have access to original Command object
	cmd.RunE = func(*cobra.Command, []string) error { return run(cmd, opts) }

	return cmd
}

// reconfigurer is the part of the accessor a reload changes.
type reconfigurer interface {
	Reconfigure(location string, factory automl.ClientFactory)
}

// handleDynamicReload applies a reloaded config file. The project cannot
// change while running.
func handleDynamicReload(ctx context.Context, fileCfg server.FileConfig, opts *internal.ServerOptions, acc reconfigurer) error {
	logger, err := util.LoggerFromContext(ctx)
	if err != nil {
		panic(err)
	}

	cfg := opts.Reloaded(fileCfg)
	if cfg.Project != opts.Cfg.Project {
		logger.WarnContext(ctx, fmt.Sprintf("Changing the project to %q requires a restart; still using %q.", cfg.Project, opts.Cfg.Project))
		cfg.Project = opts.Cfg.Project
	}
	if cfg.Location == opts.Cfg.Location && cfg.Endpoint == opts.Cfg.Endpoint {
		logger.DebugContext(ctx, "Reloaded config file has no changes.")
		return nil
	}

	var factory automl.ClientFactory
	if cfg.Endpoint != opts.Cfg.Endpoint {
		factory = internal.ClientFactory(ctx, cfg)
	}
	acc.Reconfigure(cfg.Location, factory)
	opts.Cfg = cfg
	logger.InfoContext(ctx, fmt.Sprintf("Reloaded config: listing from location %q.", cfg.Location))
	return nil
}

// watchChanges calls reload whenever configFile is written.
func watchChanges(ctx context.Context, configFile string, reload func(context.Context) error) {
	logger, err := util.LoggerFromContext(ctx)
	if err != nil {
		panic(err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.WarnContext(ctx, fmt.Sprintf("error setting up new watcher %s", err))
		return
	}
	defer w.Close()

	// fsnotify prefers watching the directory then filtering for the file
	cleanFile := filepath.Clean(configFile)
	dir := filepath.Dir(cleanFile)
	if err := w.Add(dir); err != nil {
		logger.WarnContext(ctx, fmt.Sprintf("Error adding path %s to watcher: %s", dir, err))
		return
	}
	logger.DebugContext(ctx, fmt.Sprintf("Added directory %s to watcher.", dir))

	// debounce timer is used to prevent multiple writes triggering multiple reloads
	debounceDelay := 100 * time.Millisecond
	debounce := time.NewTimer(1 * time.Minute)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.DebugContext(ctx, "file watcher context cancelled")
			return
		case err, ok := <-w.Errors:
			if !ok {
				logger.WarnContext(ctx, "file watcher was closed unexpectedly")
				return
			}
			if err != nil {
				logger.WarnContext(ctx, fmt.Sprintf("file watcher error %s", err))
				return
			}

		case e, ok := <-w.Events:
			if !ok {
				logger.WarnContext(ctx, "file watcher already closed")
				return
			}

			// multiple operations checked due to various file update methods across editors
			if !e.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
				continue
			}

			cleanedFilename := filepath.Clean(e.Name)
			logger.DebugContext(ctx, fmt.Sprintf("%s event detected in %s", e.Op, cleanedFilename))
			if cleanedFilename == cleanFile {
				debounce.Reset(debounceDelay)
			}

		case <-debounce.C:
			debounce.Stop()
			logger.DebugContext(ctx, "Reloading config file.")
			if err := reload(ctx); err != nil {
				logger.WarnContext(ctx, fmt.Sprintf("unable to reload config file at %q: %s", cleanFile, err))
			}
		}
	}
}

func run(cmd *cobra.Command, opts *internal.ServerOptions) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// watch for sigterm / sigint signals
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func(sCtx context.Context) {
		var s os.Signal
		select {
		case <-sCtx.Done():
			// this should only happen when the context supplied when testing is canceled
			return
		case s = <-signals:
		}
		switch s {
		case syscall.SIGINT:
			opts.Logger.DebugContext(sCtx, "Received SIGINT signal to shutdown.")
		case syscall.SIGTERM:
			opts.Logger.DebugContext(sCtx, "Sending SIGTERM signal to shutdown.")
		}
		cancel()
	}(ctx)

	ctx, shutdown, err := opts.Setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = shutdown(ctx)
	}()

	hasConfigFile, err := opts.LoadConfig(ctx)
	if err != nil {
		return err
	}

	acc := opts.NewAccessor(ctx)
	defer acc.Close()

	// start server
	s, err := server.NewServer(ctx, opts.Cfg, acc)
	if err != nil {
		errMsg := fmt.Errorf("automl-server failed to initialize: %w", err)
		opts.Logger.ErrorContext(ctx, errMsg.Error())
		return errMsg
	}

	err = s.Listen(ctx)
	if err != nil {
		errMsg := fmt.Errorf("automl-server failed to start listener: %w", err)
		opts.Logger.ErrorContext(ctx, errMsg.Error())
		return errMsg
	}
	opts.Logger.InfoContext(ctx, "Server ready to serve!")

	// run server in background
	srvErr := make(chan error, 1)
	go func() {
		defer close(srvErr)
		err := s.Serve(ctx)
		if err != nil {
			srvErr <- err
		}
	}()

	if hasConfigFile && !opts.Cfg.DisableReload {
		reload := func(ctx context.Context) error {
			fileCfg, err := internal.LoadConfigFile(opts.ConfigFile)
			if err != nil {
				return err
			}
			return handleDynamicReload(ctx, fileCfg, opts, acc)
		}
		// start watching the config file for changes to trigger dynamic reloading
		go watchChanges(ctx, opts.ConfigFile, reload)
	}

	// wait for either the server to error out or the command's context to be canceled
	select {
	case err := <-srvErr:
		if err != nil {
			errMsg := fmt.Errorf("automl-server crashed with the following error: %w", err)
			opts.Logger.ErrorContext(ctx, errMsg.Error())
			return errMsg
		}
	case <-ctx.Done():
		shutdownContext, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		opts.Logger.WarnContext(shutdownContext, "Shutting down gracefully...")
		err := s.Shutdown(shutdownContext)
		if err == context.DeadlineExceeded {
			return fmt.Errorf("graceful shutdown timed out... forcing exit")
		}
	}

	return nil
}
