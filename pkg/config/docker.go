package config

import (
	"os"
	"sync"
)

// dockerEnvPath exists in every Docker container.
var dockerEnvPath = "/.dockerenv"

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether the process runs inside a Docker
// container. The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat(dockerEnvPath)
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps a loopback PGHOST or REDIS_HOST to host.docker.internal inside
// a container, so a database on the host machine stays reachable.
func ResolveHostForDocker(host string, inDocker bool) string {
	if !inDocker {
		return host
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}

// ResolveBindAddrForDocker widens a loopback dashboard bind address inside a
// container; published ports never reach 127.0.0.1 there.
func ResolveBindAddrForDocker(addr string, inDocker bool) string {
	if inDocker && (addr == "127.0.0.1" || addr == "localhost") {
		return "0.0.0.0"
	}
	return addr
}

// applyDocker rewrites loopback addresses when running in a container.
func (c *Config) applyDocker(inDocker bool) {
	c.Store.Database.Host = ResolveHostForDocker(c.Store.Database.Host, inDocker)
	c.Redis.Host = ResolveHostForDocker(c.Redis.Host, inDocker)
	c.Dashboard.BindAddr = ResolveBindAddrForDocker(c.Dashboard.BindAddr, inDocker)
}
