// Package inmemdb keeps every record in process memory. Nothing survives a restart.
package inmemdb

import (
	"sync"

	"github.com/trezcool/edulead/core/chat"
	"github.com/trezcool/edulead/core/lead"
	"github.com/trezcool/edulead/core/user"
)

type (
	// DB owns the tables. Create one with Open at startup and share it between repositories.
	DB struct {
		lead *leadTable
		user *userTable
		chat *chatTable
	}

	leadTable struct {
		table map[int]*lead.Lead
		pk    int
		mutex sync.RWMutex
	}

	userTable struct {
		table map[int]*user.User
		pk    int
		mutex sync.RWMutex
	}

	chatTable struct {
		table map[string]*chat.Session // {session_id: Session}
		pk    int
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		lead: &leadTable{table: make(map[int]*lead.Lead)},
		user: &userTable{table: make(map[int]*user.User)},
		chat: &chatTable{table: make(map[string]*chat.Session)},
	}
}

// Close drops all records.
func (db *DB) Close() error {
	db.lead.mutex.Lock()
	db.lead.table = make(map[int]*lead.Lead)
	db.lead.mutex.Unlock()

	db.user.mutex.Lock()
	db.user.table = make(map[int]*user.User)
	db.user.mutex.Unlock()

	db.chat.mutex.Lock()
	db.chat.table = make(map[string]*chat.Session)
	db.chat.mutex.Unlock()
	return nil
}
