package bot

import (
	"sync"
	"time"
)

// ChatSession содержит настройки чата
type ChatSession struct {
	ChatID       int64
	Voice        string
	LastActivity time.Time
}

// IsStale проверяет, не устарела ли сессия
func (cs *ChatSession) IsStale(now time.Time, maxIdle time.Duration) bool {
	return now.Sub(cs.LastActivity) > maxIdle
}

// SessionStore хранит выбранный голос для каждого чата в памяти
type SessionStore struct {
	sessions map[int64]*ChatSession
	now      func() time.Time
	mu       sync.RWMutex
}

// NewSessionStore создает пустое хранилище
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*ChatSession),
		now:      time.Now,
	}
}

// Voice возвращает выбранный в чате голос
func (s *SessionStore) Voice(chatID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.sessions[chatID]
	if !ok || cs.Voice == "" {
		return "", false
	}
	return cs.Voice, true
}

// SetVoice запоминает голос для чата
func (s *SessionStore) SetVoice(chatID int64, voice string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sessions[chatID]
	if !ok {
		cs = &ChatSession{ChatID: chatID}
		s.sessions[chatID] = cs
	}
	cs.Voice = voice
	cs.LastActivity = s.now()
}

// Touch обновляет время активности чата
func (s *SessionStore) Touch(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cs, ok := s.sessions[chatID]; ok {
		cs.LastActivity = s.now()
	}
}

// Cleanup удаляет сессии, неактивные дольше maxIdle
func (s *SessionStore) Cleanup(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, cs := range s.sessions {
		if cs.IsStale(now, maxIdle) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len количество сессий
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
