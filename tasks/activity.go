package tasks

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"taskboard-api/domain"
)

var lastActivityStamp int64

// nextActivityStamp returns strictly increasing nanosecond timestamps so
// concurrent appends across tasks still get a total (timestamp, seq) order.
func nextActivityStamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastActivityStamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastActivityStamp, last, now) {
			return now
		}
	}
}

// record appends one immutable entry to the task's history and returns the
// envelope for the activity queue. Callers hold the store lock; exactly one
// entry is recorded per state change.
func (s *Store) record(t *domain.Task, action domain.Action, actor domain.Actor, payload any) domain.ActivityEnvelope {
	stamp := nextActivityStamp()
	entry := domain.ActivityEntry{
		ID:      uuid.NewString(),
		TaskID:  t.ID,
		Action:  action,
		Actor:   actor.Ref(),
		At:      time.Unix(0, stamp).UTC(),
		Seq:     stamp,
		Payload: payload,
	}
	t.Activity = append(t.Activity, entry)
	return domain.ActivityEnvelope{BoardID: t.BoardID, Entry: entry}
}
