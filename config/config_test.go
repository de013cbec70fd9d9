package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nspcc-dev/erldist/capability"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "erldist.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validConfig = `
PMD:
  Address: 127.0.0.1:4369
Node:
  Name: foo
  Host: localhost
  Cookie: secret
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, validConfig))
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:4369", cfg.PMD.Address)
	require.Equal(t, "foo", cfg.Node.Name)
	require.Equal(t, uint16(5), cfg.Node.VersionLowResolved())
	require.Equal(t, uint16(6), cfg.Node.VersionHighResolved())
	require.Equal(t, 60*time.Second, cfg.Node.KeepaliveInterval)

	flags, err := cfg.Node.ResolveFlags()
	require.NoError(t, err)
	require.Equal(t, capability.Default(), flags)
}

func TestLoadMissingCookieFails(t *testing.T) {
	_, err := Load(writeTempConfig(t, `
PMD:
  Address: 127.0.0.1:4369
Node:
  Name: foo
  Host: localhost
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Cookie")
}

func TestLoadMissingPMDAddressFails(t *testing.T) {
	_, err := Load(writeTempConfig(t, `
Node:
  Name: foo
  Host: localhost
  Cookie: secret
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "PMD.Address")
}

func TestLoadUnknownFieldRejected(t *testing.T) {
	_, err := Load(writeTempConfig(t, validConfig+"\nUnknownTopLevelField: 123\n"))
	require.Error(t, err)
}

func TestLoadRejectsInvertedVersionRange(t *testing.T) {
	_, err := Load(writeTempConfig(t, `
PMD:
  Address: 127.0.0.1:4369
Node:
  Name: foo
  Host: localhost
  Cookie: secret
  VersionLow: 6
  VersionHigh: 5
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "VersionLow")
}

func TestResolveFlagsWithExplicitList(t *testing.T) {
	path := writeTempConfig(t, validConfig+"\n  Flags: [PUBLISHED, BIG_CREATION]\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	flags, err := cfg.Node.ResolveFlags()
	require.NoError(t, err)
	require.True(t, flags.Has(capability.Published))
	require.True(t, flags.Has(capability.BigCreation))
	require.False(t, flags.Has(capability.UTF8Atoms))
}

func TestResolveFlagsRejectsUnknownName(t *testing.T) {
	node := Node{Name: "foo", Cookie: "secret", Flags: []string{"NOT_A_REAL_FLAG"}}
	_, err := node.ResolveFlags()
	require.Error(t, err)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	require.Error(t, err)
}
