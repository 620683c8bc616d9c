package chat

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/edulead/core/lead"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound      = errors.New("chat session not found")
	ErrSessionExists = errors.New("a chat session with this ID already exists")
)

type (
	Repository interface {
		GetSessionByKey(key string) (Session, error)
		// CreateSession fails with ErrSessionExists when the key is taken.
		CreateSession(s Session) (Session, error)
		// UpdateSession replaces the transcript of an existing session.
		// The lead draft is only replaced when draft is not nil.
		UpdateSession(key string, messages []Message, draft *lead.NewLead) (Session, error)
	}

	Service interface {
		Get(key string) (Session, error)
		Create(key string, draft *lead.NewLead) (Session, error)
		Update(key string, messages []Message, draft *lead.NewLead) (Session, error)
		// Reply records the visitor message and the assistant answer,
		// creating the session on its first message.
		Reply(nm NewMessage) (Reply, error)
	}

	service struct {
		repo     Repository
		validate *validator.Validate
		mu       sync.Mutex // serialises Reply's read-modify-write
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, validate *validator.Validate) Service {
	return &service{repo: repo, validate: validate}
}

func (svc *service) Get(key string) (Session, error) {
	return svc.repo.GetSessionByKey(key)
}

func (svc *service) Create(key string, draft *lead.NewLead) (Session, error) {
	s := Session{
		SessionID: key,
		Messages:  []Message{},
		LeadDraft: draft,
		CreatedAt: NowFunc().UTC(),
	}
	return svc.repo.CreateSession(s)
}

func (svc *service) Update(key string, messages []Message, draft *lead.NewLead) (Session, error) {
	return svc.repo.UpdateSession(key, messages, draft)
}

func (svc *service) Reply(nm NewMessage) (Reply, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Reply{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	s, err := svc.Get(nm.SessionID)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Reply{}, errors.Wrap(err, "finding chat session")
		}
		if s, err = svc.Create(nm.SessionID, nil); err != nil {
			return Reply{}, errors.Wrap(err, "creating chat session")
		}
	}

	answer, interest := Respond(nm.Message)
	now := NowFunc().UTC()
	messages := append(s.Messages,
		Message{Role: RoleUser, Content: nm.Message, Timestamp: now},
		Message{Role: RoleAssistant, Content: answer, Timestamp: now},
	)

	s, err = svc.Update(nm.SessionID, messages, updatedDraft(s.LeadDraft, interest, findEmail(nm.Message)))
	if err != nil {
		return Reply{}, errors.Wrap(err, "updating chat session")
	}
	return Reply{SessionID: s.SessionID, Response: answer, Messages: s.Messages}, nil
}

// updatedDraft returns a new draft carrying what the message revealed, or nil when it revealed nothing.
func updatedDraft(draft *lead.NewLead, interest, email string) *lead.NewLead {
	if interest == "" && email == "" {
		return nil
	}
	var nd lead.NewLead
	if draft != nil {
		nd = *draft
	}
	if interest != "" {
		nd.Interest = interest
	}
	if email != "" {
		nd.Email = email
	}
	return &nd
}
