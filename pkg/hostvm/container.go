package hostvm

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dennishilgert/benchvm/pkg/defers"
	"github.com/dennishilgert/benchvm/pkg/logger"
	"github.com/dennishilgert/benchvm/pkg/metrics"
	"github.com/dennishilgert/benchvm/pkg/process"
	"github.com/dennishilgert/benchvm/pkg/vm"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	docker "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

var log = logger.NewLogger("benchvm.hostvm")

const (
	ContainerName = "docker"

	DimensionContainerImage = "container.image"
)

// ContainerClient is the part of the Docker API the container host vm uses.
type ContainerClient interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// NewDockerClient returns a Docker client configured from the environment.
func NewDockerClient() (*docker.Client, error) {
	return docker.NewClientWithOpts(docker.FromEnv, docker.WithAPIVersionNegotiation())
}

type ContainerOptions struct {
	// Image is the image the launcher runs in. It must provide the launcher executables.
	Image string

	// ExtraArgs are put in front of the guest arguments.
	ExtraArgs []string

	// Pull pulls the image before the first run. The client has to implement ImagePuller.
	Pull bool
	Auth RegistryAuth

	Client  ContainerClient
	Machine metrics.MachineService

	// Output receives a copy of the container output.
	Output io.Writer
}

// Container is a host vm that launches guest executables inside a Docker container.
// The working directory is bind mounted at the same path.
type Container struct {
	image       string
	extraArgs   []string
	client      ContainerClient
	machine     metrics.MachineService
	passthrough io.Writer

	pull     bool
	auth     RegistryAuth
	pullOnce sync.Once
	pullErr  error
}

// NewContainer creates a new container host vm.
func NewContainer(opts ContainerOptions) *Container {
	return &Container{
		image:       opts.Image,
		extraArgs:   append([]string{}, opts.ExtraArgs...),
		client:      opts.Client,
		machine:     opts.Machine,
		passthrough: opts.Output,
		pull:        opts.Pull,
		auth:        opts.Auth,
	}
}

func (c *Container) Name() string {
	return ContainerName
}

func (c *Container) ConfigName() string {
	return c.image
}

func (c *Container) PostProcessCommandLineArgs(args []string) []string {
	return prependArgs(c.extraArgs, args)
}

func (c *Container) Dimensions(cwd string, args []string, code int, output string) vm.Dimensions {
	return runDimensions(c, c.machine, cwd, args, code, output).Merge(vm.Dimensions{
		DimensionContainerImage: c.image,
	})
}

// RunLauncher runs cmd with args in a fresh container and removes the container afterwards.
func (c *Container) RunLauncher(ctx context.Context, cmd string, args []string, cwd string) (vm.Result, error) {
	args = c.PostProcessCommandLineArgs(args)
	name := fmt.Sprintf("benchvm-%s", uuid.NewString())
	log := logger.FromContextOrDefault(ctx, log).WithFields(map[string]any{"container": name, "image": c.image})

	cleanup := defers.NewDefers()
	defer cleanup.CallAll()

	if err := c.ensureImage(ctx); err != nil {
		return vm.Result{}, err
	}

	log.Infof("Running %s in container with args: %v", cmd, args)
	created, err := c.client.ContainerCreate(ctx,
		&container.Config{
			Image:      c.image,
			Cmd:        append([]string{cmd}, args...),
			WorkingDir: cwd,
		},
		&container.HostConfig{
			Mounts: []mount.Mount{{
				Type:   mount.TypeBind,
				Source: cwd,
				Target: cwd,
			}},
		},
		nil, nil, name)
	if err != nil {
		return vm.Result{}, fmt.Errorf("failed to create container: %w", err)
	}
	cleanup.Add(func() {
		if err := c.client.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
			log.Warnf("failed to remove container: %v", err)
		}
	})

	if err := c.client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return vm.Result{}, fmt.Errorf("failed to start container: %w", err)
	}

	code, err := c.wait(ctx, created.ID)
	if err != nil {
		return vm.Result{}, err
	}

	out := process.NewTeeCapture(process.NewOutputCapture(), c.passthrough)
	logs, err := c.client.ContainerLogs(ctx, created.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return vm.Result{}, fmt.Errorf("failed to read container logs: %w", err)
	}
	defer logs.Close()
	if _, err := stdcopy.StdCopy(out, out, logs); err != nil {
		return vm.Result{}, fmt.Errorf("failed to demultiplex container logs: %w", err)
	}

	output := out.Underlying().Data()
	return vm.Result{
		Code:       code,
		Output:     output,
		Dimensions: c.Dimensions(cwd, args, code, output),
	}, nil
}

// ensureImage pulls the image once if pulling is enabled.
func (c *Container) ensureImage(ctx context.Context) error {
	if !c.pull {
		return nil
	}
	c.pullOnce.Do(func() {
		puller, ok := c.client.(ImagePuller)
		if !ok {
			c.pullErr = fmt.Errorf("container client cannot pull image %s", c.image)
			return
		}
		log.Infof("pulling image %s", c.image)
		c.pullErr = pullImage(ctx, puller, c.image, c.auth)
	})
	return c.pullErr
}

func (c *Container) wait(ctx context.Context, containerId string) (int, error) {
	statusCh, errCh := c.client.ContainerWait(ctx, containerId, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return -1, fmt.Errorf("failed to wait for container: %s", status.Error.Message)
		}
		return int(status.StatusCode), nil
	case err := <-errCh:
		return -1, fmt.Errorf("failed to wait for container: %w", err)
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

var _ vm.Launcher = (*Container)(nil)
