package inmemdb

import (
	"sort"
	"time"

	"github.com/trezcool/edulead/core"
	"github.com/trezcool/edulead/core/lead"
)

type leadRepository struct {
	db *leadTable
}

func NewLeadRepository(db *DB) lead.Repository {
	return &leadRepository{db: db.lead}
}

// copyLead detaches the returned Lead from the stored one.
func copyLead(l *lead.Lead) lead.Lead {
	cp := *l
	if l.Age != nil {
		age := *l.Age
		cp.Age = &age
	}
	if l.CRMID != nil {
		crmID := *l.CRMID
		cp.CRMID = &crmID
	}
	if l.Prediction.Factors != nil {
		cp.Prediction.Factors = append([]string(nil), l.Prediction.Factors...)
	}
	return cp
}

// query returns copies of the matching leads, newest first. The caller holds the lock.
func (repo *leadRepository) query(match func(l *lead.Lead) bool) []lead.Lead {
	leads := make([]lead.Lead, 0, len(repo.db.table))
	for _, l := range repo.db.table {
		if match == nil || match(l) {
			leads = append(leads, copyLead(l))
		}
	}
	sort.Slice(leads, func(i, j int) bool {
		if leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].ID > leads[j].ID
		}
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	return leads
}

func (repo *leadRepository) CreateLead(l lead.Lead) (lead.Lead, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.pk++
	l.ID = repo.db.pk
	stored := copyLead(&l)
	repo.db.table[l.ID] = &stored
	return copyLead(&stored), nil
}

func (repo *leadRepository) QueryAllLeads() ([]lead.Lead, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(nil), nil
}

func (repo *leadRepository) GetLeadByID(id int) (lead.Lead, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if l, ok := repo.db.table[id]; ok {
		return copyLead(l), nil
	}
	return lead.Lead{}, lead.ErrNotFound
}

func (repo *leadRepository) UpdateLeadStatus(id int, status string, updatedAt time.Time) (lead.Lead, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	l, ok := repo.db.table[id]
	if !ok {
		return lead.Lead{}, lead.ErrNotFound
	}
	l.Status = status
	l.UpdatedAt = updatedAt
	return copyLead(l), nil
}

func (repo *leadRepository) MarkLeadSynced(id int, crmID string, updatedAt time.Time) (lead.Lead, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	l, ok := repo.db.table[id]
	if !ok {
		return lead.Lead{}, lead.ErrNotFound
	}
	l.CRMSynced = true
	l.CRMID = &crmID
	l.UpdatedAt = updatedAt
	return copyLead(l), nil
}

func (repo *leadRepository) FilterLeads(filter lead.QueryFilter) ([]lead.Lead, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.query(func(l *lead.Lead) bool {
		if filter.Quality != "" && l.Quality != filter.Quality {
			return false
		}
		if filter.Status != "" && l.Status != filter.Status {
			return false
		}
		if filter.Search != "" {
			return core.ContainsFold(l.Name, filter.Search) ||
				core.ContainsFold(l.Email, filter.Search) ||
				core.ContainsFold(l.Interest, filter.Search) ||
				core.ContainsFold(l.Location, filter.Search) ||
				core.ContainsFold(l.Comments, filter.Search)
		}
		return true
	}), nil
}
