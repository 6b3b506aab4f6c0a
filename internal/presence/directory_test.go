package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordConn struct {
	mu     sync.Mutex
	events []any
}

func (c *recordConn) SendEvent(event string, payload any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if event == EventOnlineUsers {
		c.events = append(c.events, payload)
	}
	return true
}

func (c *recordConn) lastSnapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return nil
	}
	snap, _ := c.events[len(c.events)-1].([]string)
	return snap
}

func TestDirectory_RegisterAndLookup(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	conn := &recordConn{}

	d.Register("alice", conn)

	got, ok := d.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, conn, got.(*recordConn))

	_, ok = d.Lookup("bob")
	assert.False(t, ok)
}

func TestDirectory_SecondRegisterReplacesHandle(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	h1 := &recordConn{}
	h2 := &recordConn{}

	d.Register("alice", h1)
	d.Register("alice", h2)

	got, ok := d.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, h2, got.(*recordConn))
	assert.Equal(t, []string{"alice"}, d.Online())
}

func TestDirectory_UnregisterRemovesOnlyThatUser(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	aliceConn := &recordConn{}
	bobConn := &recordConn{}

	d.Register("alice", aliceConn)
	d.Register("bob", bobConn)
	d.Unregister(aliceConn)

	_, ok := d.Lookup("alice")
	assert.False(t, ok)
	got, ok := d.Lookup("bob")
	require.True(t, ok)
	assert.Same(t, bobConn, got.(*recordConn))
	assert.Equal(t, []string{"bob"}, d.Online())
}

func TestDirectory_UnregisterIsIdempotent(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	conn := &recordConn{}

	d.Register("alice", conn)
	d.Unregister(conn)
	d.Unregister(conn)

	assert.Empty(t, d.Online())
}

func TestDirectory_LateUnregisterKeepsNewerRegistration(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	h1 := &recordConn{}
	h2 := &recordConn{}

	d.Register("alice", h1)
	d.Register("alice", h2)
	// The old transport tears down after the replacement already landed.
	d.Unregister(h1)

	got, ok := d.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, h2, got.(*recordConn))
}

func TestDirectory_SnapshotBroadcastOnChange(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	aliceConn := &recordConn{}
	bobConn := &recordConn{}

	d.Register("alice", aliceConn)
	d.Register("bob", bobConn)
	assert.Equal(t, []string{"alice", "bob"}, aliceConn.lastSnapshot())
	assert.Equal(t, []string{"alice", "bob"}, bobConn.lastSnapshot())

	d.Unregister(aliceConn)
	assert.Equal(t, []string{"bob"}, bobConn.lastSnapshot())
}

func TestDirectory_ConnRebindToDifferentUser(t *testing.T) {
	d := NewDirectory(zap.NewNop())
	conn := &recordConn{}

	d.Register("alice", conn)
	d.Register("bob", conn)

	_, ok := d.Lookup("alice")
	assert.False(t, ok)
	got, ok := d.Lookup("bob")
	require.True(t, ok)
	assert.Same(t, conn, got.(*recordConn))
	assert.Equal(t, []string{"bob"}, d.Online())
}
