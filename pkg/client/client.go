/*
Package client provides the producer side of the ingestion protocol: framed
sends, optional per-message acknowledgement, and reconnection with
exponential backoff.

The client moves through Disconnected, Connecting, Connected, and Faulted.
Connecting retries forever, doubling its delay up to a configured ceiling;
ingestion favours availability over bounded retry.  While Connected, sends
are strictly sequential with at most one outstanding request.
*/
package client

import (
	"encoding/json"
	"log"
	"net"
	"time"

	"github.com/fluxgate/fluxgate/pkg/frame"
	"github.com/fluxgate/fluxgate/pkg/types"
)

const (
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 60 * time.Second
	DefaultDialTimeout    = 10 * time.Second
)

type Config struct {
	// Addr is the ingestion server's host:port.
	Addr string

	// WaitAck blocks each Send until the matching ack is decoded.
	WaitAck bool

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	DialTimeout    time.Duration
}

/*
Client maintains one outbound connection to the ingestion server.  It is not
safe for concurrent use: one producer task owns one client.
*/
type Client struct {
	cfg  Config
	conn net.Conn

	// Replaceable in tests so reconnect behaviour can be asserted without
	// real sockets or real time.
	dial  func(network, addr string, timeout time.Duration) (net.Conn, error)
	sleep func(time.Duration)
}

func New(cfg Config) *Client {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}

	return &Client{
		cfg:   cfg,
		dial:  net.DialTimeout,
		sleep: time.Sleep,
	}
}

/*
Connect blocks until a connection is established.  Each failed attempt sleeps
for the current backoff, then doubles it up to the ceiling.  There is no
terminal failure state.
*/
func (c *Client) Connect() {
	backoff := c.cfg.InitialBackoff
	for {
		conn, err := c.dial("tcp", c.cfg.Addr, c.cfg.DialTimeout)
		if err == nil {
			c.conn = conn
			log.Printf("[client] connected to %s", c.cfg.Addr)
			return
		}

		log.Printf("[client] connect to %s failed: %v, retrying in %s",
			c.cfg.Addr, err, backoff)
		c.sleep(backoff)

		backoff *= 2
		if backoff > c.cfg.MaxBackoff {
			backoff = c.cfg.MaxBackoff
		}
	}
}

/*
Send delivers one record.  On a connection fault it closes the socket,
reconnects with backoff, and retries the same record exactly once; a second
fault abandons the record and returns the error.

With WaitAck set, the returned ack is the server's response; otherwise the
zero Ack is returned as soon as the frame is written.
*/
func (c *Client) Send(doc any) (types.Ack, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return types.Ack{}, err
	}

	if c.conn == nil {
		c.Connect()
	}

	ack, err := c.sendFrame(raw)
	if err == nil {
		return ack, nil
	}

	log.Printf("[client] send failed: %v, reconnecting", err)
	c.closeConn()
	c.Connect()

	ack, err = c.sendFrame(raw)
	if err != nil {
		// Abandoning the record: drop the dead socket so the next Send
		// dials fresh instead of burning its retry on it.
		c.closeConn()
	}
	return ack, err
}

func (c *Client) sendFrame(raw []byte) (types.Ack, error) {
	if err := frame.Write(c.conn, raw); err != nil {
		return types.Ack{}, err
	}

	if !c.cfg.WaitAck {
		return types.Ack{}, nil
	}

	var ack types.Ack
	if err := frame.ReadJSON(c.conn, &ack); err != nil {
		return types.Ack{}, err
	}
	return ack, nil
}

// Close releases the connection.  The client can be reused; the next Send
// reconnects.
func (c *Client) Close() {
	c.closeConn()
}

func (c *Client) closeConn() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
