// Package testingh starts disposable docker dependencies for integration
// suites.
package testingh

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
)

const maxWait = 2 * time.Minute

var hostName = os.Getenv("OVERRIDE_HOSTNAME")

func init() {
	const defaultHostName = "localhost"

	if hostName == "" {
		hostName = defaultHostName
	}
}

type image struct {
	name       string
	repository string
	tag        string
	port       docker.Port
	env        []string
	cmd        func(hostPort int) []string
}

var (
	redpanda = image{
		name:       "redpanda",
		repository: "redpandadata/redpanda",
		tag:        "latest",
		port:       "9092/tcp",
		cmd: func(hostPort int) []string {
			return []string{
				"redpanda start",
				"--overprovisioned",
				"--smp 1",
				"--memory 1G",
				"--reserve-memory 0M",
				"--node-id 0",
				"--check=false",
				fmt.Sprintf("--advertise-kafka-addr %s:%v", hostName, hostPort),
			}
		},
	}

	clickhouse = image{
		name:       "clickhouse",
		repository: "clickhouse/clickhouse-server",
		tag:        "latest-alpine",
		port:       "9000/tcp",
		env: []string{
			"CLICKHOUSE_DB=test_db",
			"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT=1",
			"CLICKHOUSE_USER=su",
			"CLICKHOUSE_PASSWORD=su",
		},
	}
)

type Container struct {
	resource *dockertest.Resource
}

// NewRedpanda starts a single node broker and calls connectFn with its
// address until it succeeds.
func NewRedpanda(connectFn func(connURL string) error) (*Container, error) {
	return run(redpanda, connectFn)
}

// NewClickhouse starts a server with database test_db and user su:su.
func NewClickhouse(connectFn func(connURL string) error) (*Container, error) {
	return run(clickhouse, connectFn)
}

func run(img image, connectFn func(connURL string) error) (*Container, error) {
	hostPort, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free hostPort: %w", err)
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not connect to docker: %w", err)
	}
	pool.MaxWait = maxWait

	opts := &dockertest.RunOptions{
		Repository: img.repository,
		Tag:        img.tag,
		Env:        img.env,
		Auth: docker.AuthConfiguration{
			Username: os.Getenv("ARTIFACTORY_USER"),
			Password: os.Getenv("ARTIFACTORY_PWD"),
		},
		PortBindings: map[docker.Port][]docker.PortBinding{
			img.port: {{
				HostIP:   hostName,
				HostPort: strconv.Itoa(hostPort),
			}},
		},
	}
	if img.cmd != nil {
		opts.Cmd = img.cmd(hostPort)
	}

	resource, err := pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, fmt.Errorf("could not create %s container: %w", img.name, err)
	}

	addr := fmt.Sprintf("%s:%s", hostName, resource.GetPort(string(img.port)))
	// the server in the container needs time before it accepts connections
	if err := pool.Retry(func() error {
		return connectFn(addr)
	}); err != nil {
		_ = resource.Close()
		return nil, fmt.Errorf("could not connect to %s: %w", img.name, err)
	}

	return &Container{resource: resource}, nil
}

func (c *Container) Purge() error {
	return c.resource.Close()
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
