package engine

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
)

// Conn is one wire connection to the analysis server. Frames are
// newline-terminated JSON documents in both directions.
type Conn interface {
	// Send writes one frame. The implementation appends the terminator.
	Send(line string) error
	// Recv blocks until one frame arrives and returns it without the
	// terminator.
	Recv() (string, error)
	Close() error
}

// Dialer opens a Conn to addr. Swappable for tests.
type Dialer func(ctx context.Context, addr string) (Conn, error)

// DialTCP is the default Dialer.
func DialTCP(ctx context.Context, addr string) (Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &tcpConn{conn: nc, reader: bufio.NewReaderSize(nc, 64*1024)}, nil
}

type tcpConn struct {
	conn   net.Conn
	reader *bufio.Reader

	writeMu sync.Mutex
}

func (c *tcpConn) Send(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (c *tcpConn) Recv() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}
