package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dennishilgert/benchvm/cmd/benchvm/config"
	"github.com/dennishilgert/benchvm/internal/app/bench"
	"github.com/dennishilgert/benchvm/internal/app/graaljs"
	"github.com/dennishilgert/benchvm/pkg/concurrency/runner"
	"github.com/dennishilgert/benchvm/pkg/defers"
	"github.com/dennishilgert/benchvm/pkg/hostvm"
	"github.com/dennishilgert/benchvm/pkg/logger"
	"github.com/dennishilgert/benchvm/pkg/metrics"
	"github.com/dennishilgert/benchvm/pkg/results"
	"github.com/dennishilgert/benchvm/pkg/utils"
	"github.com/dennishilgert/benchvm/pkg/vm"
	"github.com/joho/godotenv"
)

var log = logger.NewLogger("benchvm.app")

const (
	HostLocal     = "local"
	HostContainer = "container"
)

const defaultProgressInterval = 30 * time.Second

var (
	ErrUnknownHostVm = errors.New("unknown host vm")
	ErrInvalidCwd    = errors.New("invalid working directory")
)

type Options struct {
	// Output receives a copy of the guest vm output while it runs. May be nil.
	Output io.Writer

	// ContainerClient overrides the Docker client of the container host vm.
	ContainerClient hostvm.ContainerClient

	// Machine overrides the machine dimensions service.
	Machine metrics.MachineService

	// ProgressInterval is the interval the progress of a suite run is logged in.
	ProgressInterval time.Duration
}

// App wires the vm registry, host vms and result sinks of the benchvm commands.
type App struct {
	cfg       *config.Config
	opts      Options
	registry  *vm.Registry
	companion *bench.NodeJsBenchmarks
	cleanup   defers.Defers
}

// New loads the configuration from the environment and creates the app.
func New(opts Options) (*App, error) {
	// load environment variables from .env file for local development
	if exists, _ := utils.FileExists(".env"); exists {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, opts)
}

// NewWithConfig creates the app and registers the guest vms.
func NewWithConfig(cfg *config.Config, opts Options) (*App, error) {
	if opts.Machine == nil {
		opts.Machine = metrics.NewMachineService()
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = defaultProgressInterval
	}

	a := &App{
		cfg:       cfg,
		opts:      opts,
		registry:  vm.NewJavaVmRegistry(),
		companion: bench.NewNodeJsBenchmarks(),
		cleanup:   defers.NewDefers(),
	}

	err := graaljs.RegisterNodeJsVms(a.registry, a.companion, graaljs.Options{
		NodeBinaryPath: cfg.NodeBinaryPath,
		Output:         opts.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register guest vms: %w", err)
	}
	return a, nil
}

// Registry returns the registry the guest vms are registered with.
func (a *App) Registry() *vm.Registry {
	return a.registry
}

// Close releases the clients and sinks created by the app.
func (a *App) Close() {
	a.cleanup.CallAll()
}

// Guest resolves a registered guest vm and binds it to the host vm of the given kind.
// An empty configName selects the configuration with the highest priority.
func (a *App) Guest(hostKind string, name string, configName string) (vm.GuestVm, error) {
	var registered vm.Vm
	var err error
	if configName == "" {
		registered, err = a.registry.Default(name)
	} else {
		registered, err = a.registry.Get(name, configName)
	}
	if err != nil {
		return nil, err
	}

	guest, err := a.companion.Lookup(registered.Name(), registered.ConfigName())
	if err != nil {
		return nil, err
	}

	host, err := a.hostVm(hostKind)
	if err != nil {
		return nil, err
	}
	return guest.WithHostVm(host), nil
}

func (a *App) hostVm(kind string) (vm.HostVm, error) {
	switch kind {
	case HostLocal:
		return hostvm.NewLocal(hostvm.LocalOptions{
			ExtraArgs: a.cfg.HostVmArgList(),
			Machine:   a.opts.Machine,
		}), nil
	case HostContainer:
		client := a.opts.ContainerClient
		if client == nil {
			dockerClient, err := hostvm.NewDockerClient()
			if err != nil {
				return nil, fmt.Errorf("failed to create docker client: %w", err)
			}
			a.cleanup.Add(func() { dockerClient.Close() })
			client = dockerClient
		}
		return hostvm.NewContainer(hostvm.ContainerOptions{
			Image:     a.cfg.ContainerImage,
			ExtraArgs: a.cfg.HostVmArgList(),
			Pull:      a.cfg.ContainerPull,
			Auth: hostvm.RegistryAuth{
				Username: a.cfg.ContainerRegistryUsername,
				Password: a.cfg.ContainerRegistryPassword,
			},
			Client:  client,
			Machine: a.opts.Machine,
			Output:  a.opts.Output,
		}), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownHostVm, kind)
}

// Sink creates the result sinks enabled by the configuration.
// The sinks are closed by Close.
func (a *App) Sink(ctx context.Context) (results.Sink, error) {
	sinks := make([]results.Sink, 0)
	fail := func(err error) (results.Sink, error) {
		for _, sink := range sinks {
			sink.Close()
		}
		return nil, err
	}

	if a.cfg.ResultsFile != "" {
		sinks = append(sinks, results.NewFileSink(a.cfg.ResultsFile))
	}
	if a.cfg.RedisAddress != "" {
		sinks = append(sinks, results.NewRedisSink(results.RedisOptions{
			Address:     a.cfg.RedisAddress,
			Username:    a.cfg.RedisUsername,
			Password:    a.cfg.RedisPassword,
			Database:    a.cfg.RedisDatabase,
			HistorySize: a.cfg.RedisHistorySize,
			Expiration:  a.cfg.RedisExpiration,
		}))
	}
	if a.cfg.KafkaBootstrapServers != "" {
		sink, err := results.NewKafkaSink(ctx, results.KafkaOptions{
			BootstrapServers: a.cfg.KafkaBootstrapServers,
			Topic:            a.cfg.KafkaTopic,
			CreateTopic:      a.cfg.KafkaCreateTopic,
			Partitions:       a.cfg.KafkaPartitions,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, sink)
	}
	if a.cfg.ObjectStoreEndpoint != "" {
		sink, err := results.NewObjectStoreSink(results.ObjectStoreOptions{
			Endpoint:        a.cfg.ObjectStoreEndpoint,
			AccessKeyId:     a.cfg.ObjectStoreAccessKeyId,
			SecretAccessKey: a.cfg.ObjectStoreSecretAccessKey,
			UseSsl:          a.cfg.ObjectStoreUseSsl,
			Bucket:          a.cfg.ObjectStoreBucket,
			Prefix:          a.cfg.ObjectStorePrefix,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, sink)
	}
	if a.cfg.DatabaseHost != "" {
		sink, err := results.NewDatabaseSink(results.DatabaseOptions{
			Host:     a.cfg.DatabaseHost,
			Port:     a.cfg.DatabasePort,
			Username: a.cfg.DatabaseUsername,
			Password: a.cfg.DatabasePassword,
			Database: a.cfg.DatabaseName,
			SslMode:  a.cfg.DatabaseSslMode,
			Timezone: a.cfg.DatabaseTimezone,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, sink)
	}

	for _, sink := range sinks {
		log.Debugf("publishing results to sink %s", sink.Name())
	}
	sink := results.NewMultiSink(sinks...)
	a.cleanup.Add(func() {
		if err := sink.Close(); err != nil {
			log.Warnf("failed to close result sinks: %v", err)
		}
	})
	return sink, nil
}

type RunOptions struct {
	SuiteFile string
	HostKind  string
	VmName    string
	VmConfig  string
	Cwd       string
	ExtraArgs []string

	// Benchmarks selects the benchmarks of the suite to run. Empty runs all of them.
	Benchmarks []string
}

// RunSuite runs a suite file against a guest vm and publishes the results.
func (a *App) RunSuite(ctx context.Context, opts RunOptions) (bench.Summary, error) {
	suite, err := bench.LoadSuite(opts.SuiteFile)
	if err != nil {
		return bench.Summary{}, err
	}
	suite, err = suite.Select(opts.Benchmarks)
	if err != nil {
		return bench.Summary{}, err
	}
	cwd, err := resolveCwd(opts.Cwd)
	if err != nil {
		return bench.Summary{}, err
	}
	guest, err := a.Guest(opts.HostKind, opts.VmName, opts.VmConfig)
	if err != nil {
		return bench.Summary{}, err
	}
	sink, err := a.Sink(ctx)
	if err != nil {
		return bench.Summary{}, err
	}

	suiteRunner := bench.NewRunner(bench.Options{
		Sink:      sink,
		ExtraArgs: opts.ExtraArgs,
		Machine:   a.opts.Machine,
	})

	var summary bench.Summary
	err = runner.NewRunnerManager(
		func(ctx context.Context) error {
			var err error
			summary, err = suiteRunner.RunSuite(ctx, suite, guest, cwd)
			return err
		},
		reportProgress(suiteRunner, a.opts.ProgressInterval),
	).Run(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.Join(err, fmt.Errorf("suite run cancelled: %w", ctxErr))
	}
	return summary, err
}

// reportProgress logs the benchmark suiteRunner is working on until ctx is done.
func reportProgress(suiteRunner *bench.Runner, interval time.Duration) runner.Runner {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				progress := suiteRunner.Progress()
				if progress.Benchmark != "" {
					log.Infof("suite %s: running %s, %d of %d benchmarks done", progress.Suite, progress.Benchmark, progress.Done, progress.Total)
				}
			}
		}
	}
}

// resolveCwd returns the absolute path of an existing directory.
func resolveCwd(path string) (string, error) {
	cwd, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	exists, info := utils.FileExists(cwd)
	if !exists || info == nil || !utils.IsDir(info) {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidCwd, cwd)
	}
	return cwd, nil
}

type ExecOptions struct {
	HostKind string
	VmName   string
	VmConfig string
	Cwd      string
	Args     []string
}

// Exec runs a guest vm once.
func (a *App) Exec(ctx context.Context, opts ExecOptions) (vm.Result, error) {
	cwd, err := resolveCwd(opts.Cwd)
	if err != nil {
		return vm.Result{}, err
	}
	guest, err := a.Guest(opts.HostKind, opts.VmName, opts.VmConfig)
	if err != nil {
		return vm.Result{}, err
	}
	return guest.Run(ctx, cwd, opts.Args)
}
