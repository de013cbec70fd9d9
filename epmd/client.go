// Package epmd implements a client for the port-mapping daemon used to
// register a node's listening port and to look up peer nodes.
package epmd

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nspcc-dev/erldist/internal/bytestream"
	"github.com/nspcc-dev/erldist/nodename"
)

// DefaultPort is the PMD's conventional TCP listen port.
const DefaultPort = 4369

const (
	tagAlive2Req       = 120
	tagAlive2XResp     = 118
	tagAlive2Resp      = 121
	tagPortPlease2Req  = 122
	tagPort2Resp       = 119
	tagNamesReq        = 110
)

// NodeEntry is what the PMD stores for a registered node.
type NodeEntry struct {
	Name            string
	Port            uint16
	Type            nodename.Type
	Protocol        uint8
	HighestVersion  uint16
	LowestVersion   uint16
	Extra           []byte
}

// NameEntry is one line of a GetNames listing.
type NameEntry struct {
	Name string
	Port uint16
}

// Dialer opens the transport the client speaks the PMD protocol over.
// Production callers dial TCP; tests substitute net.Pipe.
type Dialer func(ctx context.Context) (net.Conn, error)

// TCPDialer returns a Dialer that connects to addr (host:port, defaults
// to DefaultPort if no port is given).
func TCPDialer(addr string) Dialer {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(DefaultPort))
	}
	var d net.Dialer
	return func(ctx context.Context) (net.Conn, error) {
		return d.DialContext(ctx, "tcp", addr)
	}
}

// Client talks the PMD wire protocol described in the distribution
// handshake's companion port-mapping service.
type Client struct {
	dial  Dialer
	log   *zap.Logger
	cache *lru.Cache // optional GetNode result cache, nil disables caching
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables an LRU cache of size n for GetNode lookups.
func WithCache(n int) Option {
	return func(c *Client) {
		cache, err := lru.New(n)
		if err == nil {
			c.cache = cache
		}
	}
}

// NewClient builds a Client that dials addr for every request.
func NewClient(addr string, log *zap.Logger, opts ...Option) *Client {
	return NewClientWithDialer(TCPDialer(addr), log, opts...)
}

// NewClientWithDialer builds a Client using a caller-supplied Dialer,
// for tests that substitute net.Pipe.
func NewClientWithDialer(dial Dialer, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{dial: dial, log: log}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetNode looks up name, returning nil if no node by that name is
// currently registered.
func (c *Client) GetNode(ctx context.Context, name string) (*NodeEntry, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(name); ok {
			entry := v.(NodeEntry)
			return &entry, nil
		}
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "epmd: dial")
	}
	defer conn.Close()

	bs := bytestream.New(conn)
	if err := writeRequest(bs, byte(tagPortPlease2Req), []byte(name)); err != nil {
		return nil, errors.Wrap(err, "epmd: get_node: write request")
	}

	tag, err := bs.ReadU8()
	if err != nil {
		return nil, errors.Wrap(err, "epmd: get_node: read response tag")
	}
	if tag != tagPort2Resp {
		return nil, errors.Errorf("epmd: get_node: unexpected response tag %d", tag)
	}

	result, err := bs.ReadU8()
	if err != nil {
		return nil, errors.Wrap(err, "epmd: get_node: read result")
	}
	if result != 0 {
		c.log.Debug("epmd: node not found", zap.String("name", name), zap.Uint8("result", result))
		return nil, nil
	}

	entry, err := decodeNodeEntry(bs, name)
	if err != nil {
		return nil, errors.Wrap(err, "epmd: get_node: decode entry")
	}
	if c.cache != nil {
		c.cache.Add(name, *entry)
	}
	return entry, nil
}

func decodeNodeEntry(bs *bytestream.Conn, requestedName string) (*NodeEntry, error) {
	port, err := bs.ReadU16()
	if err != nil {
		return nil, err
	}
	nodeType, err := bs.ReadU8()
	if err != nil {
		return nil, err
	}
	protocol, err := bs.ReadU8()
	if err != nil {
		return nil, err
	}
	highVer, err := bs.ReadU16()
	if err != nil {
		return nil, err
	}
	lowVer, err := bs.ReadU16()
	if err != nil {
		return nil, err
	}
	name, err := bs.ReadU16String()
	if err != nil {
		return nil, err
	}
	extraLen, err := bs.ReadU16()
	if err != nil {
		return nil, err
	}
	extra, err := bs.ReadExact(int(extraLen))
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = requestedName
	}
	return &NodeEntry{
		Name:           name,
		Port:           port,
		Type:           nodename.Type(nodeType),
		Protocol:       protocol,
		HighestVersion: highVer,
		LowestVersion:  lowVer,
		Extra:          extra,
	}, nil
}

// GetNames lists every node currently registered with the PMD. Lines
// that do not parse as "name NAME at port N" are skipped rather than
// failing the whole call, since the listing format is not versioned.
func (c *Client) GetNames(ctx context.Context) ([]NameEntry, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "epmd: dial")
	}
	defer conn.Close()

	bs := bytestream.New(conn)
	if err := writeRequest(bs, byte(tagNamesReq), nil); err != nil {
		return nil, errors.Wrap(err, "epmd: get_names: write request")
	}

	if _, err := bs.ReadU32(); err != nil { // epmd_port_no, unused by callers
		return nil, errors.Wrap(err, "epmd: get_names: read epmd port")
	}

	var entries []NameEntry
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		entry, ok := parseNameLine(scanner.Text())
		if !ok {
			c.log.Debug("epmd: skipping malformed names line", zap.String("line", scanner.Text()))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseNameLine parses a line of the form `name foo at port 1234`.
func parseNameLine(line string) (NameEntry, bool) {
	fields := strings.Fields(line)
	if len(fields) != 5 || fields[0] != "name" || fields[2] != "at" || fields[3] != "port" {
		return NameEntry{}, false
	}
	port, err := strconv.ParseUint(fields[4], 10, 16)
	if err != nil {
		return NameEntry{}, false
	}
	return NameEntry{Name: fields[1], Port: uint16(port)}, true
}

// Registration is the keepalive handle returned by Register. The PMD
// detects node liveness by this transport staying open; Close
// deregisters the node.
type Registration struct {
	conn     net.Conn
	Creation nodename.Creation
}

// Close deregisters the node by closing the owned transport.
func (r *Registration) Close() error {
	return r.conn.Close()
}

// Register announces entry to the PMD. The returned Registration must
// be kept open (and eventually Closed) for the registration's
// lifetime; dropping it without closing leaks the TCP connection but
// still deregisters once the process exits.
func (c *Client) Register(ctx context.Context, entry NodeEntry) (*Registration, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "epmd: dial")
	}

	bs := bytestream.New(conn)
	body := encodeAlive2Request(entry)
	if err := writeRequest(bs, byte(tagAlive2Req), body); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "epmd: register: write request")
	}

	tag, err := bs.ReadU8()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "epmd: register: read response tag")
	}

	var creation nodename.Creation
	switch tag {
	case tagAlive2XResp:
		result, err := bs.ReadU8()
		if err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "epmd: register: read result")
		}
		if result != 0 {
			conn.Close()
			return nil, errors.Errorf("epmd: register: refused, result=%d", result)
		}
		c4, err := bs.ReadU32()
		if err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "epmd: register: read creation")
		}
		creation = nodename.NewCreation(c4)
	case tagAlive2Resp:
		result, err := bs.ReadU8()
		if err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "epmd: register: read result")
		}
		if result != 0 {
			conn.Close()
			return nil, errors.Errorf("epmd: register: refused, result=%d", result)
		}
		c2, err := bs.ReadU16()
		if err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "epmd: register: read legacy creation")
		}
		c.log.Warn("epmd: peer used legacy ALIVE2_RESP with 16-bit creation")
		creation = nodename.NewCreation(uint32(c2))
	default:
		conn.Close()
		return nil, errors.Errorf("epmd: register: unexpected response tag %d", tag)
	}

	return &Registration{conn: conn, Creation: creation}, nil
}

func encodeAlive2Request(e NodeEntry) []byte {
	buf := make([]byte, 0, 16+len(e.Name)+len(e.Extra))
	buf = append(buf, byte(e.Port>>8), byte(e.Port))
	buf = append(buf, byte(e.Type))
	buf = append(buf, e.Protocol)
	buf = append(buf, byte(e.HighestVersion>>8), byte(e.HighestVersion))
	buf = append(buf, byte(e.LowestVersion>>8), byte(e.LowestVersion))
	buf = append(buf, byte(len(e.Name)>>8), byte(len(e.Name)))
	buf = append(buf, e.Name...)
	buf = append(buf, byte(len(e.Extra)>>8), byte(len(e.Extra)))
	buf = append(buf, e.Extra...)
	return buf
}

// writeRequest frames body with the u16 length prefix every PMD
// request uses, tag included in the count.
func writeRequest(bs *bytestream.Conn, tag byte, body []byte) error {
	if err := bs.WriteU16(uint16(1 + len(body))); err != nil {
		return err
	}
	if err := bs.WriteU8(tag); err != nil {
		return err
	}
	if len(body) > 0 {
		if err := bs.WriteAll(body); err != nil {
			return err
		}
	}
	return bs.Flush()
}
