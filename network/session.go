package network

import (
	"net"
	"sort"
	"time"

	"github.com/MixinNetwork/udpfs/protocol"
	"github.com/gofrs/uuid"
)

type session struct {
	id      uuid.UUID
	addr    *net.UDPAddr
	packets [][]byte
	started time.Time
	active  time.Time
}

type SessionInfo struct {
	Id        string    `json:"id"`
	Peer      string    `json:"peer"`
	Fragments int       `json:"fragments"`
	StartedAt time.Time `json:"started_at"`
}

// sessionTracker holds the in progress messages per peer address. It is
// only touched by the server receive loop and takes no locks.
type sessionTracker struct {
	capacity int
	m        map[string]*session
}

func newSessionTracker(capacity int) *sessionTracker {
	return &sessionTracker{
		capacity: capacity,
		m:        make(map[string]*session),
	}
}

// add appends a datagram to the peer session, a new peer beyond the
// capacity is rejected before it takes a slot.
func (st *sessionTracker) add(addr *net.UDPAddr, data []byte, now time.Time) (*session, error) {
	key := addr.String()
	s := st.m[key]
	if s == nil {
		if len(st.m) >= st.capacity {
			return nil, protocol.NewError(protocol.KindCapacity, "max client connections reached")
		}
		s = &session{
			id:      uuid.Must(uuid.NewV4()),
			addr:    addr,
			started: now,
		}
		st.m[key] = s
	}
	s.packets = append(s.packets, data)
	s.active = now
	return s, nil
}

func (st *sessionTracker) get(addr *net.UDPAddr) *session {
	return st.m[addr.String()]
}

func (st *sessionTracker) drop(addr *net.UDPAddr) {
	delete(st.m, addr.String())
}

func (st *sessionTracker) len() int {
	return len(st.m)
}

// expire drops the sessions idle for longer than ttl.
func (st *sessionTracker) expire(ttl time.Duration, now time.Time) []*session {
	var expired []*session
	for key, s := range st.m {
		if s.active.Add(ttl).Before(now) {
			expired = append(expired, s)
			delete(st.m, key)
		}
	}
	return expired
}

func (st *sessionTracker) snapshot() []*SessionInfo {
	infos := make([]*SessionInfo, 0, len(st.m))
	for _, s := range st.m {
		infos = append(infos, &SessionInfo{
			Id:        s.id.String(),
			Peer:      s.addr.String(),
			Fragments: len(s.packets),
			StartedAt: s.started,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}
