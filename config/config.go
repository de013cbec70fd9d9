// Package config loads the YAML configuration an operator of the
// example CLI supplies: PMD address, cookie, local node identity,
// advertised capability flags, protocol version range and keepalive
// interval.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nspcc-dev/erldist/capability"
)

// Config is the top-level structure decoded from a config file.
type Config struct {
	PMD  PMD  `yaml:"PMD"`
	Node Node `yaml:"Node"`
}

// PMD holds the settings for reaching the port-mapping daemon.
type PMD struct {
	Address string `yaml:"Address"`
}

// Node holds the local node's identity and handshake preferences.
type Node struct {
	Name              string        `yaml:"Name"`
	Host              string        `yaml:"Host"`
	Cookie            string        `yaml:"Cookie"`
	VersionLow        uint16        `yaml:"VersionLow"`
	VersionHigh       uint16        `yaml:"VersionHigh"`
	Flags             []string      `yaml:"Flags"`
	KeepaliveInterval time.Duration `yaml:"KeepaliveInterval"`
}

// Validate checks invariants Load cannot enforce through YAML tags
// alone.
func (c Config) Validate() error {
	if err := c.PMD.Validate(); err != nil {
		return err
	}
	return c.Node.Validate()
}

// Validate checks PMD.Address is present.
func (p PMD) Validate() error {
	if p.Address == "" {
		return fmt.Errorf("config: PMD.Address is required")
	}
	return nil
}

// Validate checks Node invariants: a name, a cookie, and a sane version
// range.
func (n Node) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("config: Node.Name is required")
	}
	if n.Cookie == "" {
		return fmt.Errorf("config: Node.Cookie is required")
	}
	low, high := n.versionRange()
	if low > high {
		return fmt.Errorf("config: Node.VersionLow (%d) exceeds Node.VersionHigh (%d)", low, high)
	}
	if _, err := n.ResolveFlags(); err != nil {
		return err
	}
	return nil
}

func (n Node) versionRange() (uint16, uint16) {
	low, high := n.VersionLow, n.VersionHigh
	if low == 0 {
		low = 5
	}
	if high == 0 {
		high = 6
	}
	return low, high
}

// VersionLowResolved and VersionHighResolved report the effective
// version range, applying the library's (5, 6) default when the
// config omits either bound.
func (n Node) VersionLowResolved() uint16  { low, _ := n.versionRange(); return low }
func (n Node) VersionHighResolved() uint16 { _, high := n.versionRange(); return high }

// knownFlags maps the YAML flag names to capability.Flags bits,
// covering every flag capability.Flags.String can render.
var knownFlags = map[string]capability.Flags{
	"PUBLISHED":           capability.Published,
	"ATOM_CACHE":          capability.AtomCache,
	"EXTENDED_REFERENCES": capability.ExtendedReferences,
	"DIST_MONITOR":        capability.DistMonitor,
	"FUN_TAGS":            capability.FunTags,
	"DIST_MONITOR_NAME":   capability.DistMonitorName,
	"HIDDEN_ATOM_CACHE":   capability.HiddenAtomCache,
	"NEW_FUN_TAGS":        capability.NewFunTags,
	"EXTENDED_PIDS_PORTS": capability.ExtendedPidsPorts,
	"EXPORT_PTR_TAG":      capability.ExportPtrTag,
	"BIT_BINARIES":        capability.BitBinaries,
	"NEW_FLOATS":          capability.NewFloats,
	"UNICODE_IO":          capability.UnicodeIO,
	"DIST_HDR_ATOM_CACHE": capability.DistHdrAtomCache,
	"SMALL_ATOM_TAGS":     capability.SmallAtomTags,
	"UTF8_ATOMS":          capability.UTF8Atoms,
	"MAP_TAGS":            capability.MapTags,
	"BIG_CREATION":        capability.BigCreation,
	"SEND_SENDER":         capability.SendSender,
	"BIG_SEQTRACE_LABELS": capability.BigSeqtraceLabels,
	"EXIT_PAYLOAD":        capability.ExitPayload,
	"FRAGMENTS":           capability.Fragments,
	"HANDSHAKE_23":        capability.Handshake23,
	"UNLINK_ID":           capability.UnlinkID,
	"SPAWN":               capability.Spawn,
	"NAME_ME":             capability.NameMe,
	"V4_NC":               capability.V4NC,
	"ALIAS":               capability.Alias,
	"MANDATORY_25_DIGEST": capability.Mandatory25Digest,
}

// ResolveFlags turns the configured flag names into a capability.Flags
// value. An empty list resolves to capability.Default().
func (n Node) ResolveFlags() (capability.Flags, error) {
	if len(n.Flags) == 0 {
		return capability.Default(), nil
	}
	var f capability.Flags
	for _, name := range n.Flags {
		bit, ok := knownFlags[name]
		if !ok {
			return 0, fmt.Errorf("config: unknown flag %q", name)
		}
		f |= bit
	}
	return f, nil
}

// Load reads and validates a config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (Config, error) {
	cfg := Config{
		Node: Node{
			KeepaliveInterval: 60 * time.Second,
		},
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
