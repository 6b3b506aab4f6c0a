package presence

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/observability"
)

// EventOnlineUsers is the broadcast event carrying the full presence
// snapshot. Published on every register and unregister.
const EventOnlineUsers = "onlineUsers"

// Conn is a live connection handle. Sends are best-effort: a false return
// means the event was dropped, which is fine for presence snapshots.
type Conn interface {
	SendEvent(event string, payload any) bool
}

// Directory maps user ids to their single live connection. State is
// volatile: a restart means everyone is offline until they rejoin.
//
// Invariant: at most one connection per user. A new register for an
// already-present user replaces the mapping; the old connection is not
// closed here. The reverse map makes unregister O(1) instead of scanning
// every user.
type Directory struct {
	mu     sync.RWMutex
	byUser map[string]Conn
	byConn map[Conn]string
	log    *zap.Logger
}

func NewDirectory(log *zap.Logger) *Directory {
	return &Directory{
		byUser: make(map[string]Conn),
		byConn: make(map[Conn]string),
		log:    log,
	}
}

// Register binds userID to conn, replacing any previous handle for the
// user, and broadcasts the updated snapshot to every live connection.
func (d *Directory) Register(userID string, conn Conn) {
	d.mu.Lock()
	if old, ok := d.byUser[userID]; ok && old != conn {
		delete(d.byConn, old)
		d.log.Info("presence: replacing connection", zap.String("user_id", userID))
	}
	// The same conn may rebind to a different user on re-join.
	if prevUser, ok := d.byConn[conn]; ok && prevUser != userID {
		delete(d.byUser, prevUser)
	}
	d.byUser[userID] = conn
	d.byConn[conn] = userID
	users, conns := d.snapshotLocked()
	d.mu.Unlock()

	observability.OnlineUsers.Set(float64(len(users)))
	publish(users, conns)
}

// Lookup returns the live connection for userID, if any.
func (d *Directory) Lookup(userID string) (Conn, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	conn, ok := d.byUser[userID]
	return conn, ok
}

// Unregister removes whichever user currently maps to conn and broadcasts
// the updated snapshot. Calling it again for the same conn is a no-op.
func (d *Directory) Unregister(conn Conn) {
	d.mu.Lock()
	userID, ok := d.byConn[conn]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.byConn, conn)
	// Only drop the forward entry if it still points at this conn; a newer
	// registration for the same user must survive a late unregister.
	if current, exists := d.byUser[userID]; exists && current == conn {
		delete(d.byUser, userID)
	}
	users, conns := d.snapshotLocked()
	d.mu.Unlock()

	d.log.Info("presence: unregistered", zap.String("user_id", userID))
	observability.OnlineUsers.Set(float64(len(users)))
	publish(users, conns)
}

// Online returns the sorted list of currently-present user ids.
func (d *Directory) Online() []string {
	d.mu.RLock()
	users := make([]string, 0, len(d.byUser))
	for u := range d.byUser {
		users = append(users, u)
	}
	d.mu.RUnlock()

	sort.Strings(users)
	return users
}

func (d *Directory) snapshotLocked() ([]string, []Conn) {
	users := make([]string, 0, len(d.byUser))
	conns := make([]Conn, 0, len(d.byUser))
	for u, c := range d.byUser {
		users = append(users, u)
		conns = append(conns, c)
	}
	sort.Strings(users)
	return users, conns
}

// publish runs outside the directory lock so a slow connection cannot
// stall registration.
func publish(users []string, conns []Conn) {
	for _, c := range conns {
		c.SendEvent(EventOnlineUsers, users)
	}
}
