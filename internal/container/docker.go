package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	log "github.com/sirupsen/logrus"
)

const pingTimeout = 2 * time.Second

// dockerAPI is the subset of the Docker SDK client DockerEngine uses.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *containertypes.Config, hostConfig *containertypes.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (containertypes.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options containertypes.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options containertypes.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options containertypes.RemoveOptions) error
	ContainerList(ctx context.Context, options containertypes.ListOptions) ([]types.Container, error)
	Close() error
}

// DockerEngine implements Engine over the Docker Engine API.
type DockerEngine struct {
	api dockerAPI
	log *log.Logger
}

// NewDockerEngine connects to the Docker daemon. It returns
// ErrEngineUnavailable when no daemon answers.
func NewDockerEngine(logger *log.Logger) (*DockerEngine, error) {
	cli, err := createDockerClient()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return newDockerEngine(cli, logger), nil
}

func newDockerEngine(api dockerAPI, logger *log.Logger) *DockerEngine {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	return &DockerEngine{api: api, log: logger}
}

// createDockerClient honours DOCKER_HOST and friends first, then tries the
// usual socket locations for Docker Desktop and Colima.
func createDockerClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err == nil {
		if err = ping(cli); err == nil {
			return cli, nil
		}
		cli.Close()
	}

	home := os.Getenv("HOME")
	socketPaths := []string{
		"unix://" + home + "/.docker/run/docker.sock",
		"unix:///var/run/docker.sock",
		"unix://" + home + "/.colima/docker.sock",
	}
	for _, socketPath := range socketPaths {
		c, cerr := client.NewClientWithOpts(client.WithHost(socketPath), client.WithAPIVersionNegotiation())
		if cerr != nil {
			continue
		}
		if ping(c) == nil {
			return c, nil
		}
		c.Close()
	}

	if err == nil {
		err = fmt.Errorf("could not connect to Docker daemon")
	}
	return nil, err
}

func ping(api dockerAPI) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	_, err := api.Ping(ctx)
	return err
}

// ImageTags returns every repo tag stored locally, sorted.
func (e *DockerEngine) ImageTags(ctx context.Context) ([]string, error) {
	images, err := e.api.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, wrapAPIError("list images", err)
	}
	var tags []string
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag != "<none>:<none>" {
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// Run creates and starts a detached container. When the engine does not
// have the image it is pulled once through the API before giving up with
// ErrImageNotFound. A container that fails to start is removed.
func (e *DockerEngine) Run(ctx context.Context, cfg RunConfig) (*Handle, error) {
	if cfg.Name == "" {
		cfg.Name = NewName(cfg.Image)
	}

	containerCfg := &containertypes.Config{
		Image:      cfg.Image,
		Env:        envList(cfg.Env),
		WorkingDir: cfg.WorkDir,
		User:       cfg.User,
		Labels:     labels(cfg),
		OpenStdin:  true,
	}
	hostCfg := &containertypes.HostConfig{
		Binds:      cfg.Binds,
		AutoRemove: false,
	}

	resp, err := e.api.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, cfg.Name)
	if errdefs.IsNotFound(err) {
		e.log.WithField("image", cfg.Image).Debug("image missing at create, pulling")
		if pullErr := e.pull(ctx, cfg.Image); pullErr != nil {
			e.log.WithError(pullErr).WithField("image", cfg.Image).Debug("pull failed")
		}
		resp, err = e.api.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, cfg.Name)
	}
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, cfg.Image)
		}
		return nil, wrapAPIError("create container", err)
	}

	if err := e.api.ContainerStart(ctx, resp.ID, containertypes.StartOptions{}); err != nil {
		rmErr := e.api.ContainerRemove(context.WithoutCancel(ctx), resp.ID, containertypes.RemoveOptions{Force: true})
		if rmErr != nil {
			e.log.WithError(rmErr).WithField("container", resp.ID).Debug("remove after failed start")
		}
		return nil, wrapAPIError("start container", err)
	}

	for _, w := range resp.Warnings {
		e.log.WithField("container", resp.ID).Warn(w)
	}
	return &Handle{ID: ContainerID(resp.ID), Name: cfg.Name, Image: cfg.Image}, nil
}

// pull drains an API pull; the engine only finishes the pull once the
// progress stream has been read to the end.
func (e *DockerEngine) pull(ctx context.Context, ref string) error {
	rc, err := e.api.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(io.Discard, rc)
	return err
}

// Stop stops a container with the daemon's default grace period.
func (e *DockerEngine) Stop(ctx context.Context, id ContainerID) error {
	err := e.api.ContainerStop(ctx, string(id), containertypes.StopOptions{})
	if err != nil && !errdefs.IsNotFound(err) {
		return wrapAPIError("stop container", err)
	}
	return nil
}

// Remove force-removes a container, so one that survived Stop does not
// linger. A removal already in progress counts as done.
func (e *DockerEngine) Remove(ctx context.Context, id ContainerID) error {
	err := e.api.ContainerRemove(ctx, string(id), containertypes.RemoveOptions{Force: true})
	switch {
	case err == nil, errdefs.IsNotFound(err):
		return nil
	case errdefs.IsConflict(err):
		e.log.WithError(err).WithField("container", id).Debug("removal already in progress")
		return nil
	}
	return wrapAPIError("remove container", err)
}

// ListManaged returns every container labelled as created by dkr.
func (e *DockerEngine) ListManaged(ctx context.Context) ([]Summary, error) {
	containers, err := e.api.ContainerList(ctx, containertypes.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", LabelManagedBy+"="+ManagedByValue)),
	})
	if err != nil {
		return nil, wrapAPIError("list containers", err)
	}

	out := make([]Summary, 0, len(containers))
	for _, c := range containers {
		s := Summary{ID: ContainerID(c.ID), Image: c.Image, State: c.State, Owner: ownerFromLabels(c.Labels)}
		if len(c.Names) > 0 {
			s.Name = trimSlash(c.Names[0])
		}
		out = append(out, s)
	}
	return out, nil
}

// Close releases the client.
func (e *DockerEngine) Close() error {
	return e.api.Close()
}

func wrapAPIError(op string, err error) error {
	if client.IsErrConnectionFailed(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrEngineUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func envList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func trimSlash(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}

var _ Engine = (*DockerEngine)(nil)
