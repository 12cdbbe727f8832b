package network

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/MixinNetwork/udpfs/command"
	"github.com/MixinNetwork/udpfs/config"
	"github.com/MixinNetwork/udpfs/logger"
	"github.com/MixinNetwork/udpfs/protocol"
	"github.com/MixinNetwork/udpfs/storage"
)

type Client struct {
	codec     *protocol.Codec
	transport Transport
	server    *net.UDPAddr
	requester *command.Requester
}

// NewClient talks to server, a host without port gets the configured one.
func NewClient(custom *config.Custom, transport Transport, server string, store storage.Store) (*Client, error) {
	codec, err := protocol.NewCodec(custom.Protocol.PacketSize)
	if err != nil {
		return nil, err
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, strconv.Itoa(custom.Server.Port))
	}
	addr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %s %s", server, err.Error())
	}
	return &Client{
		codec:     codec,
		transport: transport,
		server:    addr,
		requester: command.NewRequester(store),
	}, nil
}

// Execute runs one user command line against the server. Only the receive
// timeout bounds the exchange.
func (c *Client) Execute(line string) (fmt.Stringer, error) {
	name, args := command.ParseInput(line)
	req, err := c.requester.Lookup(name)
	if err != nil {
		return nil, err
	}
	content, err := req.Encode(args)
	if err != nil {
		return nil, err
	}
	for _, p := range c.codec.Packets(content) {
		err := c.transport.Send(c.server, p)
		if err != nil {
			return nil, fmt.Errorf("client send %s %s", c.server, err.Error())
		}
	}

	packets, err := c.receive()
	if err != nil {
		return nil, err
	}
	content, err = c.codec.Join(packets)
	if err != nil {
		return nil, err
	}
	return c.requester.Result(req, content)
}

func (c *Client) receive() ([][]byte, error) {
	var packets [][]byte
	for {
		d, err := c.transport.Receive()
		if isTimeout(err) {
			return nil, protocol.NewError(protocol.KindTimeout, "command timed out")
		} else if err != nil {
			return nil, err
		}
		if !sameAddr(d.Addr, c.server) {
			logger.Debugf("client ignore datagram from %s\n", d.Addr)
			continue
		}
		packets = append(packets, d.Data)
		if protocol.IsTerminal(d.Data) {
			return packets, nil
		}
	}
}

// Interact reads commands line by line until the input ends, the user
// quits or the context is cancelled. Command errors are printed and the
// loop goes on.
func (c *Client) Interact(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, "client started\ninput commands:")
	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "closing client")
			return nil
		case line, ok = <-lines:
		}
		if !ok || strings.TrimSpace(line) == "quit" {
			fmt.Fprintln(out, "closing client")
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		res, err := c.Execute(line)
		if err != nil {
			fmt.Fprintln(out, err.Error())
			continue
		}
		fmt.Fprintln(out, res.String())
	}
}
