package memory

import (
	"time"

	"ai-docedit-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository tracks active editing sessions. Sessions are normally
// deleted on disconnect; the TTL only reaps entries whose connection died
// without a clean close.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Touch refreshes the idle TTL on activity.
func (r *SessionRepository) Touch(sessionID string) {
	if s, found := r.Get(sessionID); found {
		r.cache.Set(sessionID, s, cache.DefaultExpiration)
	}
}
