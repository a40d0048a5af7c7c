package hostvm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
)

// ImagePuller is implemented by container clients that can pull images.
type ImagePuller interface {
	ImagePull(ctx context.Context, refStr string, options types.ImagePullOptions) (io.ReadCloser, error)
}

// RegistryAuth are the credentials used to pull the launcher image.
type RegistryAuth struct {
	Username string
	Password string
}

func (a RegistryAuth) encode() (string, error) {
	if a.Username == "" && a.Password == "" {
		return "", nil
	}
	encodedJson, err := json.Marshal(registry.AuthConfig{
		Username: a.Username,
		Password: a.Password,
	})
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(encodedJson), nil
}

// pullMessage is a line of the json stream docker answers a pull with.
type pullMessage struct {
	Status      string `json:"status"`
	Progress    string `json:"progress"`
	Error       string `json:"error"`
	ErrorDetail struct {
		Message string `json:"message"`
	} `json:"errorDetail"`
}

func pullImage(ctx context.Context, puller ImagePuller, ref string, auth RegistryAuth) error {
	encodedAuth, err := auth.encode()
	if err != nil {
		return fmt.Errorf("failed to encode registry auth: %w", err)
	}
	response, err := puller.ImagePull(ctx, ref, types.ImagePullOptions{
		All:          false,
		RegistryAuth: encodedAuth,
	})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer response.Close()

	if err := readPullProgress(response); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return nil
}

// readPullProgress consumes the pull stream. The pull is done once the stream ends.
func readPullProgress(reader io.Reader) error {
	decoder := json.NewDecoder(reader)
	for {
		var msg pullMessage
		if err := decoder.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if msg.Error != "" {
			return errors.New(msg.Error)
		}
		if msg.ErrorDetail.Message != "" {
			return errors.New(msg.ErrorDetail.Message)
		}
		log.Debugf("image pull: %s %s", msg.Status, msg.Progress)
	}
}
