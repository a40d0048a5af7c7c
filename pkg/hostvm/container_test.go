package hostvm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContainerClient struct {
	config     *container.Config
	hostConfig *container.HostConfig
	name       string

	createErr error
	started   bool
	removed   bool
	exitCode  int64
	waitErr   *container.WaitExitError
	stdout    string
	stderr    string
}

func (f *fakeContainerClient) ContainerCreate(_ context.Context, config *container.Config, hostConfig *container.HostConfig, _ *network.NetworkingConfig, _ *ocispec.Platform, name string) (container.CreateResponse, error) {
	if f.createErr != nil {
		return container.CreateResponse{}, f.createErr
	}
	f.config = config
	f.hostConfig = hostConfig
	f.name = name
	return container.CreateResponse{ID: "0123456789abcdef"}, nil
}

func (f *fakeContainerClient) ContainerStart(_ context.Context, _ string, _ container.StartOptions) error {
	f.started = true
	return nil
}

func (f *fakeContainerClient) ContainerWait(_ context.Context, _ string, _ container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	statusCh := make(chan container.WaitResponse, 1)
	statusCh <- container.WaitResponse{StatusCode: f.exitCode, Error: f.waitErr}
	return statusCh, make(chan error)
}

func (f *fakeContainerClient) ContainerLogs(_ context.Context, _ string, _ container.LogsOptions) (io.ReadCloser, error) {
	var buf bytes.Buffer
	if f.stdout != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(f.stdout))
	}
	if f.stderr != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(f.stderr))
	}
	return io.NopCloser(&buf), nil
}

func (f *fakeContainerClient) ContainerRemove(_ context.Context, _ string, _ container.RemoveOptions) error {
	f.removed = true
	return nil
}

func TestContainerRunLauncher(t *testing.T) {
	client := &fakeContainerClient{exitCode: 2, stdout: "Richards: 100\n", stderr: "warning\n"}
	var passthrough bytes.Buffer
	c := NewContainer(ContainerOptions{
		Image:     "ghcr.io/graalvm/nodejs-community:21",
		ExtraArgs: []string{"--jvm"},
		Client:    client,
		Output:    &passthrough,
	})

	result, err := c.RunLauncher(context.Background(), "node", []string{"run.js", "--opt"}, "/bench")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Code)
	assert.Equal(t, "Richards: 100\nwarning\n", result.Output)
	assert.Equal(t, result.Output, passthrough.String())
	assert.Equal(t, 2, result.Dimensions[DimensionExitCode])
	assert.Equal(t, "ghcr.io/graalvm/nodejs-community:21", result.Dimensions[DimensionContainerImage])
	assert.Equal(t, ContainerName, result.Dimensions[DimensionHostVm])

	require.NotNil(t, client.config)
	assert.Equal(t, []string{"node", "--jvm", "run.js", "--opt"}, []string(client.config.Cmd))
	assert.Equal(t, "/bench", client.config.WorkingDir)
	require.Len(t, client.hostConfig.Mounts, 1)
	assert.Equal(t, "/bench", client.hostConfig.Mounts[0].Source)
	assert.Equal(t, "/bench", client.hostConfig.Mounts[0].Target)
	assert.Contains(t, client.name, "benchvm-")
	assert.True(t, client.started)
	assert.True(t, client.removed)
}

func TestContainerRunLauncherCreateFailure(t *testing.T) {
	client := &fakeContainerClient{createErr: errors.New("no such image")}
	c := NewContainer(ContainerOptions{Image: "missing", Client: client})

	_, err := c.RunLauncher(context.Background(), "node", nil, "/bench")
	assert.ErrorContains(t, err, "no such image")
	assert.False(t, client.started)
	assert.False(t, client.removed)
}

func TestContainerRunLauncherWaitError(t *testing.T) {
	client := &fakeContainerClient{waitErr: &container.WaitExitError{Message: "daemon gone"}}
	c := NewContainer(ContainerOptions{Image: "img", Client: client})

	_, err := c.RunLauncher(context.Background(), "node", nil, "/bench")
	assert.ErrorContains(t, err, "daemon gone")
	assert.True(t, client.removed)
}
