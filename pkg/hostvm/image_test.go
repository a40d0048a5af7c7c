package hostvm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pullingClient struct {
	fakeContainerClient

	pulls    []string
	options  types.ImagePullOptions
	response string
}

func (p *pullingClient) ImagePull(_ context.Context, refStr string, options types.ImagePullOptions) (io.ReadCloser, error) {
	p.pulls = append(p.pulls, refStr)
	p.options = options
	return io.NopCloser(strings.NewReader(p.response)), nil
}

func TestReadPullProgress(t *testing.T) {
	ok := `{"status":"Pulling from graalvm/nodejs-community"}
{"status":"Downloading","progress":"[=>   ] 1MB/10MB"}
{"status":"Status: Downloaded newer image"}
`
	assert.NoError(t, readPullProgress(strings.NewReader(ok)))

	failed := `{"status":"Pulling from graalvm/nodejs-community"}
{"errorDetail":{"message":"manifest unknown"},"error":"manifest unknown"}
`
	assert.EqualError(t, readPullProgress(strings.NewReader(failed)), "manifest unknown")

	assert.Error(t, readPullProgress(strings.NewReader("{not json")))
}

func TestRegistryAuthEncode(t *testing.T) {
	empty, err := RegistryAuth{}.encode()
	require.NoError(t, err)
	assert.Empty(t, empty)

	encoded, err := RegistryAuth{Username: "bench", Password: "secret"}.encode()
	require.NoError(t, err)
	raw, err := base64.URLEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var auth registry.AuthConfig
	require.NoError(t, json.Unmarshal(raw, &auth))
	assert.Equal(t, "bench", auth.Username)
	assert.Equal(t, "secret", auth.Password)
}

func TestContainerPullsImageOnce(t *testing.T) {
	client := &pullingClient{response: `{"status":"Status: Image is up to date"}`}
	c := NewContainer(ContainerOptions{
		Image:  "ghcr.io/graalvm/nodejs-community:21",
		Pull:   true,
		Auth:   RegistryAuth{Username: "bench", Password: "secret"},
		Client: client,
	})

	for i := 0; i < 2; i++ {
		_, err := c.RunLauncher(context.Background(), "node", []string{"run.js"}, "/bench")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"ghcr.io/graalvm/nodejs-community:21"}, client.pulls)
	assert.NotEmpty(t, client.options.RegistryAuth)
}

func TestContainerPullWithoutPuller(t *testing.T) {
	c := NewContainer(ContainerOptions{
		Image:  "ghcr.io/graalvm/nodejs-community:21",
		Pull:   true,
		Client: &fakeContainerClient{},
	})

	_, err := c.RunLauncher(context.Background(), "node", []string{"run.js"}, "/bench")
	assert.ErrorContains(t, err, "cannot pull image")
}
