package session

import (
	"github.com/RevCBH/dkr/internal/mount"
	log "github.com/sirupsen/logrus"
)

// LaunchSpec is everything needed to start the container and run the
// command. It is built once by Prepare and not modified afterwards.
type LaunchSpec struct {
	Image      string
	Volumes    mount.Mounts
	Invocation []string
	Env        map[string]string
	WorkDir    string
	User       string
	ExecFlags  []string
}

// Fields renders the spec for structured logging.
func (s *LaunchSpec) Fields() log.Fields {
	return log.Fields{
		"image":      s.Image,
		"volumes":    s.Volumes.Binds(),
		"invocation": s.Invocation,
		"env":        s.Env,
		"workdir":    s.WorkDir,
		"user":       s.User,
		"exec_flags": s.ExecFlags,
	}
}

func (s *LaunchSpec) clone() *LaunchSpec {
	out := *s
	out.Volumes = make(mount.Mounts, len(s.Volumes))
	for k, v := range s.Volumes {
		out.Volumes[k] = v
	}
	out.Invocation = append([]string(nil), s.Invocation...)
	out.ExecFlags = append([]string(nil), s.ExecFlags...)
	out.Env = make(map[string]string, len(s.Env))
	for k, v := range s.Env {
		out.Env[k] = v
	}
	return &out
}
