package proxy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway() Gateway {
	return Gateway{Host: "gate.example.com", Port: 10001, Username: "acct", Password: "secret"}
}

func TestNewSessionUniqueIDs(t *testing.T) {
	gw := testGateway()
	a := NewSession(gw)
	b := NewSession(gw)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "acct-session-"+a.ID, a.SessionUsername())
	assert.Equal(t, "http://gate.example.com:10001", a.Server())
}

func TestBuildExtension(t *testing.T) {
	sess := NewSession(testGateway())

	dir, err := BuildExtension(sess)
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	manifest, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), `"proxy"`)

	background, err := os.ReadFile(filepath.Join(dir, "background.js"))
	require.NoError(t, err)
	assert.Contains(t, string(background), "gate.example.com")
	assert.Contains(t, string(background), "port: 10001")
	assert.Contains(t, string(background), sess.SessionUsername())
	assert.Contains(t, string(background), "secret")
}

func TestBuildExtensionUniquePaths(t *testing.T) {
	gw := testGateway()

	a, err := BuildExtension(NewSession(gw))
	require.NoError(t, err)
	defer os.RemoveAll(a)

	b, err := BuildExtension(NewSession(gw))
	require.NoError(t, err)
	defer os.RemoveAll(b)

	assert.NotEqual(t, a, b)
}
