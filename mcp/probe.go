// Package mcp checks that the MCP servers of a converted bundle start and
// answer, using the Model Context Protocol client.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/i2y/plugport/opencode"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 30 * time.Second

// ErrInvalidServer is returned for a server entry that names neither a
// command nor a URL.
var ErrInvalidServer = errors.New("invalid MCP server")

// ProbeResult is what a server reported.
type ProbeResult struct {
	Name          string   // Key in the config
	ServerName    string   // Name the server reported
	ServerVersion string   // Version the server reported
	Tools         []string // Tool names, sorted
}

// Option configures Probe.
type Option func(*probeConfig)

type probeConfig struct {
	timeout    time.Duration
	httpClient *http.Client
}

// WithTimeout sets how long a probe may take, including startup.
func WithTimeout(d time.Duration) Option {
	return func(c *probeConfig) {
		c.timeout = d
	}
}

// WithHTTPClient sets the client used for remote servers.
func WithHTTPClient(client *http.Client) Option {
	return func(c *probeConfig) {
		c.httpClient = client
	}
}

// Probe connects to one converted MCP server, lists its tools and
// disconnects. Local servers are spawned with their environment added to the
// current one; remote servers are reached over streamable HTTP with their
// headers on every request.
//
// Example:
//
//	result, err := mcp.Probe(ctx, "context7", bundle.Config.MCP["context7"])
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Tools)
func Probe(ctx context.Context, name string, server opencode.MCPServer, opts ...Option) (*ProbeResult, error) {
	cfg := &probeConfig{
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	transport, err := Transport(server, cfg.httpClient)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	return probe(ctx, name, transport)
}

// Transport returns the client transport for a server entry.
func Transport(server opencode.MCPServer, httpClient *http.Client) (mcp.Transport, error) {
	switch {
	case len(server.Command) > 0:
		cmd := exec.Command(server.Command[0], server.Command[1:]...)
		if len(server.Environment) > 0 {
			cmd.Env = append(os.Environ(), envList(server.Environment)...)
		}
		return &mcp.CommandTransport{Command: cmd}, nil
	case server.URL != "":
		if httpClient == nil {
			httpClient = &http.Client{}
		}
		if len(server.Headers) > 0 {
			client := *httpClient
			client.Transport = &headerTransport{base: client.Transport, headers: server.Headers}
			httpClient = &client
		}
		return &mcp.StreamableClientTransport{
			Endpoint:   server.URL,
			HTTPClient: httpClient,
			MaxRetries: -1,
		}, nil
	default:
		return nil, fmt.Errorf("%w: type %q has neither command nor url", ErrInvalidServer, server.Type)
	}
}

func probe(ctx context.Context, name string, transport mcp.Transport) (*ProbeResult, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "plugport",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to MCP server %s: %w", name, err)
	}
	defer session.Close()

	result := &ProbeResult{Name: name}
	if init := session.InitializeResult(); init != nil && init.ServerInfo != nil {
		result.ServerName = init.ServerInfo.Name
		result.ServerVersion = init.ServerInfo.Version
	}

	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("listing tools of MCP server %s: %w", name, err)
		}
		result.Tools = append(result.Tools, tool.Name)
	}
	sort.Strings(result.Tools)

	return result, nil
}

// envList renders an environment map as sorted KEY=value pairs.
func envList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
