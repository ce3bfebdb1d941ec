package container

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	images     []image.Summary
	createErrs []error
	startErr   error
	stopErr    error
	removeErr  error
	containers []types.Container

	created  []*containertypes.Config
	hosts    []*containertypes.HostConfig
	names    []string
	pulled   []string
	stopped  []string
	removed  []string
	forced   []bool
	listOpts containertypes.ListOptions
}

func (f *fakeAPI) Ping(context.Context) (types.Ping, error) { return types.Ping{}, nil }

func (f *fakeAPI) ImageList(context.Context, image.ListOptions) ([]image.Summary, error) {
	return f.images, nil
}

func (f *fakeAPI) ImagePull(_ context.Context, ref string, _ image.PullOptions) (io.ReadCloser, error) {
	f.pulled = append(f.pulled, ref)
	return io.NopCloser(strings.NewReader(`{"status":"done"}`)), nil
}

func (f *fakeAPI) ContainerCreate(_ context.Context, cfg *containertypes.Config, host *containertypes.HostConfig, _ *network.NetworkingConfig, _ *ocispec.Platform, name string) (containertypes.CreateResponse, error) {
	f.created = append(f.created, cfg)
	f.hosts = append(f.hosts, host)
	f.names = append(f.names, name)
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return containertypes.CreateResponse{}, err
		}
	}
	return containertypes.CreateResponse{ID: "c0ffee"}, nil
}

func (f *fakeAPI) ContainerStart(context.Context, string, containertypes.StartOptions) error {
	return f.startErr
}

func (f *fakeAPI) ContainerStop(_ context.Context, id string, _ containertypes.StopOptions) error {
	f.stopped = append(f.stopped, id)
	return f.stopErr
}

func (f *fakeAPI) ContainerRemove(_ context.Context, id string, opts containertypes.RemoveOptions) error {
	f.removed = append(f.removed, id)
	f.forced = append(f.forced, opts.Force)
	return f.removeErr
}

func (f *fakeAPI) ContainerList(_ context.Context, opts containertypes.ListOptions) ([]types.Container, error) {
	f.listOpts = opts
	return f.containers, nil
}

func (f *fakeAPI) Close() error { return nil }

func notFound(msg string) error {
	return errdefs.NotFound(errors.New(msg))
}

func TestDockerEngine_ImageTags(t *testing.T) {
	api := &fakeAPI{images: []image.Summary{
		{RepoTags: []string{"busybox:latest"}},
		{RepoTags: []string{"<none>:<none>"}},
		{RepoTags: []string{"alpine:latest", "alpine:3"}},
	}}
	eng := newDockerEngine(api, nil)

	tags, err := eng.ImageTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpine:3", "alpine:latest", "busybox:latest"}, tags)
}

func TestDockerEngine_Run(t *testing.T) {
	api := &fakeAPI{}
	eng := newDockerEngine(api, nil)

	h, err := eng.Run(context.Background(), RunConfig{
		Image:   "alpine:latest",
		Binds:   []string{"/home/u:/dkr/home/u:rw"},
		Env:     map[string]string{"HOME": "/dkr/home/u"},
		WorkDir: "/dkr/home/u",
		User:    "1000:1000",
	})
	require.NoError(t, err)

	assert.Equal(t, ContainerID("c0ffee"), h.ID)
	assert.Equal(t, "alpine:latest", h.Image)
	assert.True(t, strings.HasPrefix(h.Name, "dkr-alpine-"), h.Name)
	require.Len(t, api.created, 1)

	cfg := api.created[0]
	assert.True(t, cfg.OpenStdin)
	assert.Equal(t, []string{"HOME=/dkr/home/u"}, cfg.Env)
	assert.Equal(t, "/dkr/home/u", cfg.WorkingDir)
	assert.Equal(t, "1000:1000", cfg.User)
	assert.Equal(t, ManagedByValue, cfg.Labels[LabelManagedBy])
	assert.Equal(t, "alpine:latest", cfg.Labels[LabelImage])
	assert.Equal(t, []string{"/home/u:/dkr/home/u:rw"}, api.hosts[0].Binds)
	assert.False(t, api.hosts[0].AutoRemove)
	assert.Empty(t, api.pulled)
}

func TestDockerEngine_Run_PullsOnMissingImage(t *testing.T) {
	api := &fakeAPI{createErrs: []error{notFound("No such image: echo:latest"), nil}}
	eng := newDockerEngine(api, nil)

	h, err := eng.Run(context.Background(), RunConfig{Image: "echo:latest", Name: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", h.Name)
	assert.Equal(t, []string{"echo:latest"}, api.pulled)
	assert.Equal(t, []string{"fixed", "fixed"}, api.names)
}

func TestDockerEngine_Run_ImageNotFound(t *testing.T) {
	api := &fakeAPI{createErrs: []error{notFound("no such image"), notFound("no such image")}}
	eng := newDockerEngine(api, nil)

	h, err := eng.Run(context.Background(), RunConfig{Image: "nope:latest"})
	assert.Nil(t, h)
	assert.True(t, errors.Is(err, ErrImageNotFound), err)
	assert.Empty(t, api.removed)
}

func TestDockerEngine_Run_StartFailureRemovesContainer(t *testing.T) {
	api := &fakeAPI{startErr: errors.New("bad mount")}
	eng := newDockerEngine(api, nil)

	h, err := eng.Run(context.Background(), RunConfig{Image: "alpine:latest"})
	assert.Nil(t, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad mount")
	assert.Equal(t, []string{"c0ffee"}, api.removed)
	assert.Equal(t, []bool{true}, api.forced)
}

func TestDockerEngine_StopRemove_ToleratesMissing(t *testing.T) {
	api := &fakeAPI{
		stopErr:   notFound("No such container: c0ffee"),
		removeErr: notFound("No such container: c0ffee"),
	}
	eng := newDockerEngine(api, nil)
	ctx := context.Background()

	assert.NoError(t, eng.Stop(ctx, "c0ffee"))
	assert.NoError(t, eng.Remove(ctx, "c0ffee"))

	api.removeErr = errdefs.Conflict(errors.New("removal of container c0ffee is already in progress"))
	assert.NoError(t, eng.Remove(ctx, "c0ffee"))
}

func TestDockerEngine_Remove_Forces(t *testing.T) {
	api := &fakeAPI{}
	eng := newDockerEngine(api, nil)

	require.NoError(t, eng.Remove(context.Background(), "c0ffee"))
	assert.Equal(t, []bool{true}, api.forced)
}

func TestDockerEngine_StopRemove_OtherErrors(t *testing.T) {
	api := &fakeAPI{stopErr: errors.New("boom"), removeErr: errors.New("bang")}
	eng := newDockerEngine(api, nil)
	ctx := context.Background()

	assert.ErrorContains(t, eng.Stop(ctx, "c0ffee"), "boom")
	assert.ErrorContains(t, eng.Remove(ctx, "c0ffee"), "bang")
}

func TestDockerEngine_ListManaged(t *testing.T) {
	api := &fakeAPI{containers: []types.Container{
		{ID: "a1", Names: []string{"/dkr-bwa-12345678"}, Image: "bwa:latest", State: "running",
			Labels: map[string]string{LabelOwnerPID: "4242", LabelOwnerHost: "build-01"}},
		{ID: "b2", Image: "alpine:latest", State: "exited"},
	}}
	eng := newDockerEngine(api, nil)

	got, err := eng.ListManaged(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Summary{
		{ID: "a1", Name: "dkr-bwa-12345678", Image: "bwa:latest", State: "running", Owner: Owner{PID: 4242, Host: "build-01"}},
		{ID: "b2", Image: "alpine:latest", State: "exited"},
	}, got)
	assert.True(t, api.listOpts.All)
	assert.Equal(t, []string{LabelManagedBy + "=" + ManagedByValue}, api.listOpts.Filters.Get("label"))
}

func TestDockerEngine_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	eng, err := NewDockerEngine(nil)
	if err != nil {
		t.Skip("no docker daemon available")
	}
	defer eng.Close()

	_, err = eng.ImageTags(context.Background())
	assert.NoError(t, err)
}
