package network

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

const WriteDeadline = 3 * time.Second

type Datagram struct {
	Addr *net.UDPAddr
	Data []byte
}

type Transport interface {
	LocalAddr() net.Addr
	Receive() (*Datagram, error)
	Send(addr *net.UDPAddr, data []byte) error
	Close() error
}

type UdpTransport struct {
	conn     *net.UDPConn
	capacity int
	timeout  time.Duration
}

// NewUdpServer binds addr, every Receive waits at most timeout.
func NewUdpServer(addr string, capacity int, timeout time.Duration) (*UdpTransport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &UdpTransport{
		conn:     conn,
		capacity: capacity,
		timeout:  timeout,
	}, nil
}

// NewUdpClient binds an ephemeral port, it stays unconnected so the source
// of every datagram can be checked.
func NewUdpClient(capacity int, timeout time.Duration) (*UdpTransport, error) {
	return NewUdpServer(":0", capacity, timeout)
}

func (t *UdpTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

func (t *UdpTransport) Receive() (*Datagram, error) {
	if t.timeout > 0 {
		err := t.conn.SetReadDeadline(time.Now().Add(t.timeout))
		if err != nil {
			return nil, err
		}
	}
	buf := make([]byte, t.capacity+1)
	n, addr, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, err
	}
	if n > t.capacity {
		return nil, fmt.Errorf("udp receive invalid datagram size %d from %s", n, addr)
	}
	return &Datagram{Addr: addr, Data: buf[:n]}, nil
}

func (t *UdpTransport) Send(addr *net.UDPAddr, data []byte) error {
	if l := len(data); l > t.capacity {
		return fmt.Errorf("udp send invalid datagram size %d", l)
	}
	err := t.conn.SetWriteDeadline(time.Now().Add(WriteDeadline))
	if err != nil {
		return err
	}
	_, err = t.conn.WriteToUDP(data, addr)
	return err
}

func (t *UdpTransport) Close() error {
	return t.conn.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

func sameAddr(a, b *net.UDPAddr) bool {
	return a.Port == b.Port && a.IP.Equal(b.IP)
}
