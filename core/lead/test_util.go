package lead

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edulead/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service that syncs new leads to the CRM before Create returns.
func NewServiceMock(repo Repository, validate *validator.Validate, logger core.Logger, opts ...Option) Service {
	return &serviceMock{service: newService(repo, validate, logger, opts...)}
}

func (svc *serviceMock) Create(nl NewLead) (Lead, error) {
	l, err := svc.create(nl)
	if err != nil {
		return Lead{}, err
	}
	if svc.crm != nil {
		// run synchronously
		svc.syncToCRM(l)
		if synced, err := svc.repo.GetLeadByID(l.ID); err == nil {
			l = synced
		}
	}
	svc.notifyAdmissions(l)
	return l, nil
}
