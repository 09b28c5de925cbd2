package storage

import (
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/bookscan/internal/models"
)

// ScanStore keeps scan sessions in memory. Readers get copies, so a session
// returned by Get or List never changes underneath them.
type ScanStore struct {
	sessions map[string]*models.ScanSession
	mu       sync.RWMutex
}

func New() *ScanStore {
	return &ScanStore{
		sessions: make(map[string]*models.ScanSession),
	}
}

func (s *ScanStore) Get(id string) (*models.ScanSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[id]
	if !exists {
		return nil, false
	}
	cp := *session
	return &cp, true
}

func (s *ScanStore) Set(session *models.ScanSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Update applies fn to a stored session under the write lock.
// It reports false when the session does not exist.
func (s *ScanStore) Update(id string, fn func(*models.ScanSession)) (*models.ScanSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, exists := s.sessions[id]
	if !exists {
		return nil, false
	}
	fn(session)
	cp := *session
	return &cp, true
}

// List returns all sessions, newest first.
func (s *ScanStore) List() []*models.ScanSession {
	s.mu.RLock()
	result := make([]*models.ScanSession, 0, len(s.sessions))
	for _, v := range s.sessions {
		cp := *v
		result = append(result, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *ScanStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.sessions[id]
	delete(s.sessions, id)
	return exists
}
