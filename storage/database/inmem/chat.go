package inmemdb

import (
	"github.com/trezcool/edulead/core/chat"
	"github.com/trezcool/edulead/core/lead"
)

type chatRepository struct {
	db *chatTable
}

func NewChatRepository(db *DB) chat.Repository {
	return &chatRepository{db: db.chat}
}

func copyDraft(d *lead.NewLead) *lead.NewLead {
	if d == nil {
		return nil
	}
	cp := *d
	if d.Age != nil {
		age := *d.Age
		cp.Age = &age
	}
	return &cp
}

func copySession(s *chat.Session) chat.Session {
	cp := *s
	cp.Messages = append(make([]chat.Message, 0, len(s.Messages)), s.Messages...)
	cp.LeadDraft = copyDraft(s.LeadDraft)
	return cp
}

func (repo *chatRepository) GetSessionByKey(key string) (chat.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[key]; ok {
		return copySession(s), nil
	}
	return chat.Session{}, chat.ErrNotFound
}

func (repo *chatRepository) CreateSession(s chat.Session) (chat.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[s.SessionID]; ok {
		return chat.Session{}, chat.ErrSessionExists
	}

	repo.db.pk++
	s.ID = repo.db.pk
	stored := copySession(&s)
	repo.db.table[s.SessionID] = &stored
	return copySession(&stored), nil
}

func (repo *chatRepository) UpdateSession(key string, messages []chat.Message, draft *lead.NewLead) (chat.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.table[key]
	if !ok {
		return chat.Session{}, chat.ErrNotFound
	}
	s.Messages = append(make([]chat.Message, 0, len(messages)), messages...)
	if draft != nil {
		s.LeadDraft = copyDraft(draft)
	}
	return copySession(s), nil
}
