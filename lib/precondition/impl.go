package precondition

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/arch-suite/arch-suite/lib/errors"
	"github.com/arch-suite/arch-suite/lib/snapshot"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const protocolICMP = 1

func (c *Checker) check(req Requirements) error {
	if req.Root {
		if euid := c.geteuid(); euid != 0 {
			return errors.NewPreconditionError(CheckPrivilege,
				fmt.Errorf("must run as root, euid is %d", euid))
		}
	}
	if req.ProbeHost != "" {
		timeout := req.ProbeTimeout
		if timeout <= 0 {
			timeout = DefaultProbeTimeout
		}
		if err := c.reachable(req.ProbeHost, timeout); err != nil {
			return errors.NewPreconditionError(CheckNetwork, err)
		}
	}
	if req.Archive != "" {
		if err := snapshot.Validate(req.Archive); err != nil {
			return errors.NewPreconditionError(CheckArchive, err)
		}
	}
	var missing []string
	for _, tool := range req.Tools {
		if _, err := c.lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return errors.NewPreconditionError(CheckTools,
			fmt.Errorf("missing: %s", strings.Join(missing, " ")))
	}
	return nil
}

func (c *Checker) reachable(host string, timeout time.Duration) error {
	pingErr := c.ping(host, timeout)
	if pingErr == nil {
		return nil
	}
	c.logger.Debugf(0, "ping %s: %s, trying TCP\n", host, pingErr)
	if err := c.dial(net.JoinHostPort(host, "443"), timeout); err != nil {
		return fmt.Errorf("%s unreachable: %w", host, err)
	}
	return nil
}

func dial(address string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

func ping(host string, timeout time.Duration) error {
	dest, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return err
	}
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return err
	}
	defer conn.Close()
	id := os.Getpid() & 0xffff
	request := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{ID: id, Seq: 1, Data: []byte("arch-suite")},
	}
	data, err := request.Marshal(nil)
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	if _, err := conn.WriteTo(data, dest); err != nil {
		return err
	}
	buffer := make([]byte, 1500)
	for {
		nRead, peer, err := conn.ReadFrom(buffer)
		if err != nil {
			return err
		}
		reply, err := icmp.ParseMessage(protocolICMP, buffer[:nRead])
		if err != nil {
			continue
		}
		if reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		if echo, ok := reply.Body.(*icmp.Echo); !ok || echo.ID != id {
			continue
		}
		if peer.String() == dest.String() {
			return nil
		}
	}
}
