package providers

import (
	"fmt"
	"net"
	"time"

	"github.com/kindsetup-labs/kindsetup/pkg/clients/command"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/command/types"
	"github.com/kindsetup-labs/kindsetup/pkg/clients/logger"
	"github.com/kindsetup-labs/kindsetup/pkg/config"
)

const probeTimeout = 500 * time.Millisecond

// fallback candidates tried in order when the requested port is occupied
var (
	httpFallbackPorts     = []int{8080, 8081, 8082, 8083}
	httpsFallbackPorts    = []int{8443, 8444, 8445, 8446}
	nodePortFallbackPorts = []int{30081, 30082, 30083, 30084, 30085, 30086, 30087, 30088, 30089}
)

// PortNegotiator determines whether the requested host ports are free and
// selects alternatives from a fixed candidate list when they are not
type PortNegotiator struct {
	runner command.Runner
	log    logger.Logger

	// dial is replaced in tests
	dial func(network, address string, timeout time.Duration) (net.Conn, error)
}

// NewPortNegotiator creates a negotiator probing with a tcp connect and,
// when available, the lsof tool
func NewPortNegotiator(r command.Runner, l logger.Logger) *PortNegotiator {
	return &PortNegotiator{runner: r, log: l, dial: net.DialTimeout}
}

// Negotiate resolves the requested ports to free ones, the input is not
// modified and a fully resolved allocation is returned
func (n *PortNegotiator) Negotiate(requested config.PortAllocation) (config.PortAllocation, error) {
	httpPort, err := n.negotiateClass("HTTP", requested.HTTP, httpFallbackPorts)
	if err != nil {
		return config.PortAllocation{}, err
	}

	httpsPort, err := n.negotiateClass("HTTPS", requested.HTTPS, httpsFallbackPorts)
	if err != nil {
		return config.PortAllocation{}, err
	}

	nodePort, err := n.negotiateClass("NodePort", requested.NodePort, nodePortFallbackPorts)
	if err != nil {
		return config.PortAllocation{}, err
	}

	resolved := config.PortAllocation{HTTP: httpPort, HTTPS: httpsPort, NodePort: nodePort}
	n.log.Info("Using host ports", "http", resolved.HTTP, "https", resolved.HTTPS, "nodeport", resolved.NodePort)

	return resolved, nil
}

func (n *PortNegotiator) negotiateClass(class string, requested int, fallbacks []int) (int, error) {
	if n.isPortFree(requested) {
		return requested, nil
	}

	n.log.Warn("Port occupied, trying alternatives", "class", class, "port", requested)

	for _, p := range fallbacks {
		if n.isPortFree(p) {
			n.log.Info("Using alternative port", "class", class, "port", p)
			return p, nil
		}
	}

	return 0, operationError("unable to find a free %s port, tried %d and %v", class, requested, fallbacks)
}

// isPortFree probes the port with a tcp connect, a successful connection
// means something is listening. A free result is corroborated with lsof,
// when lsof is missing the socket probe alone is trusted.
func (n *PortNegotiator) isPortFree(port int) bool {
	conn, err := n.dial("tcp", fmt.Sprintf("localhost:%d", port), probeTimeout)
	if err == nil {
		conn.Close()
		return false
	}

	r, err := n.runner.Execute(types.RunOptions{
		Command: "lsof",
		Args:    []string{"-i", fmt.Sprintf(":%d", port)},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return true
	}

	// lsof exits non zero when no process holds the port
	return !r.Success()
}
