package lead

import (
	"context"
	"math"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/edulead/core"
	"github.com/trezcool/edulead/core/scoring"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("lead not found")

	// DefaultOrdering is applied when no ordering is requested.
	DefaultOrdering = []core.Ordering{{Field: "created_at", Ascending: false}}

	orderingFields = map[string]func(a, b Lead) int{
		"id":         func(a, b Lead) int { return a.ID - b.ID },
		"name":       func(a, b Lead) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
		"score":      func(a, b Lead) int { return a.Score - b.Score },
		"created_at": func(a, b Lead) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
		"updated_at": func(a, b Lead) int { return compareTimes(a.UpdatedAt, b.UpdatedAt) },
	}
)

const (
	defaultSyncTimeout = 30 * time.Second
	newLeadTemplate    = "new_lead"
)

type (
	Repository interface {
		CreateLead(l Lead) (Lead, error)
		// QueryAllLeads returns leads by creation time, newest first.
		QueryAllLeads() ([]Lead, error)
		GetLeadByID(id int) (Lead, error)
		// UpdateLeadStatus only changes Lead.Status and Lead.UpdatedAt.
		UpdateLeadStatus(id int, status string, updatedAt time.Time) (Lead, error)
		MarkLeadSynced(id int, crmID string, updatedAt time.Time) (Lead, error)
		// FilterLeads applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// Lead.Name, Lead.Email, Lead.Interest, Lead.Location or Lead.Comments.
		FilterLeads(filter QueryFilter) ([]Lead, error)
	}

	// CRMSyncer forwards leads to an external CRM and returns their identifier there.
	CRMSyncer interface {
		SyncLead(ctx context.Context, l Lead) (string, error)
	}

	Service interface {
		Create(nl NewLead) (Lead, error)
		Score(sr ScoreRequest) (scoring.Result, error)
		QueryAll(ordering ...core.Ordering) ([]Lead, error)
		GetByID(id int) (Lead, error)
		UpdateStatus(id int, us UpdateStatus) (Lead, error)
		FilterByQuality(quality string) ([]Lead, error)
		FilterByStatus(status string) ([]Lead, error)
		Search(query string) ([]Lead, error)
		Filter(filter QueryFilter, ordering ...core.Ordering) ([]Lead, error)
		Stats() (Stats, error)
		// Wait blocks until all background CRM syncs are done.
		Wait()
	}

	service struct {
		repo        Repository
		validate    *validator.Validate
		logger      core.Logger
		scorer      *scoring.Scorer
		crm         CRMSyncer
		syncTimeout time.Duration
		mailSvc     core.EmailService
		admissions  string
		wg          *sync.WaitGroup
	}

	Option func(*service)
)

var _ Service = (*service)(nil)

// WithScorer replaces the default scoring.Scorer.
func WithScorer(scorer *scoring.Scorer) Option {
	return func(svc *service) { svc.scorer = scorer }
}

// WithCRM enables syncing new leads to the CRM.
func WithCRM(crm CRMSyncer, timeout time.Duration) Option {
	return func(svc *service) {
		svc.crm = crm
		if timeout > 0 {
			svc.syncTimeout = timeout
		}
	}
}

// WithNotifications emails high quality leads to the admissions address.
func WithNotifications(mailSvc core.EmailService, admissionsEmail string) Option {
	return func(svc *service) {
		svc.mailSvc = mailSvc
		svc.admissions = admissionsEmail
	}
}

func newService(repo Repository, validate *validator.Validate, logger core.Logger, opts ...Option) service {
	svc := service{
		repo:        repo,
		validate:    validate,
		logger:      logger,
		syncTimeout: defaultSyncTimeout,
		wg:          new(sync.WaitGroup),
	}
	for _, opt := range opts {
		opt(&svc)
	}
	if svc.scorer == nil {
		svc.scorer = scoring.NewScorer()
	}
	return svc
}

func NewService(repo Repository, validate *validator.Validate, logger core.Logger, opts ...Option) Service {
	svc := newService(repo, validate, logger, opts...)
	return &svc
}

func (svc *service) create(nl NewLead) (Lead, error) {
	if err := nl.Validate(svc.validate); err != nil {
		return Lead{}, err
	}

	res := svc.scorer.Score(nl.ScoringInput())
	now := NowFunc().UTC()
	l := Lead{
		Name:        nl.Name,
		Email:       nl.Email,
		Phone:       nl.Phone,
		Age:         nl.Age,
		Location:    nl.Location,
		Interest:    nl.Interest,
		DegreeLevel: nl.DegreeLevel,
		Timeline:    nl.Timeline,
		Comments:    nl.Comments,
		Score:       res.Score,
		Quality:     res.Quality,
		Status:      StatusNew,
		Prediction:  res.Prediction,
		CRMSynced:   false,
		CRMID:       nil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l, err := svc.repo.CreateLead(l)
	if err != nil {
		return Lead{}, errors.Wrap(err, "creating lead")
	}
	return l, nil
}

func (svc *service) Create(nl NewLead) (Lead, error) {
	l, err := svc.create(nl)
	if err != nil {
		return Lead{}, err
	}
	if svc.crm != nil {
		svc.wg.Add(1)
		go func() {
			defer svc.wg.Done()
			svc.syncToCRM(l)
		}()
	}
	svc.notifyAdmissions(l)
	return l, nil
}

// syncToCRM is best-effort: failures are logged and swallowed.
func (svc *service) syncToCRM(l Lead) {
	ctx, cancel := context.WithTimeout(context.Background(), svc.syncTimeout)
	defer cancel()

	crmID, err := svc.crm.SyncLead(ctx, l)
	if err != nil {
		svc.logger.Error("syncing lead to CRM", errors.Wrap(err, "syncing lead to CRM"), map[string]interface{}{"lead_id": l.ID})
		return
	}
	if _, err := svc.repo.MarkLeadSynced(l.ID, crmID, NowFunc().UTC()); err != nil {
		svc.logger.Error("marking lead as synced", errors.Wrap(err, "marking lead as synced"), map[string]interface{}{"lead_id": l.ID})
	}
}

func (svc *service) notifyAdmissions(l Lead) {
	if l.Quality != scoring.QualityHigh || svc.mailSvc == nil || svc.admissions == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: svc.admissions}},
		Subject:      "New high-quality lead: " + l.Name,
		TemplateName: newLeadTemplate,
		TemplateData: l,
	})
}

func (svc *service) Score(sr ScoreRequest) (scoring.Result, error) {
	if err := sr.Validate(svc.validate); err != nil {
		return scoring.Result{}, err
	}
	return svc.scorer.Score(sr.ScoringInput()), nil
}

func (svc *service) QueryAll(ordering ...core.Ordering) ([]Lead, error) {
	leads, err := svc.repo.QueryAllLeads()
	if err != nil {
		return nil, errors.Wrap(err, "querying leads")
	}
	return sortLeads(leads, ordering)
}

func (svc *service) GetByID(id int) (Lead, error) {
	return svc.repo.GetLeadByID(id)
}

func (svc *service) UpdateStatus(id int, us UpdateStatus) (Lead, error) {
	if err := us.Validate(svc.validate); err != nil {
		return Lead{}, err
	}
	return svc.repo.UpdateLeadStatus(id, us.Status, NowFunc().UTC())
}

func (svc *service) FilterByQuality(quality string) ([]Lead, error) {
	return svc.Filter(QueryFilter{Quality: quality})
}

func (svc *service) FilterByStatus(status string) ([]Lead, error) {
	return svc.Filter(QueryFilter{Status: status})
}

func (svc *service) Search(query string) ([]Lead, error) {
	return svc.Filter(QueryFilter{Search: query})
}

func (svc *service) Filter(filter QueryFilter, ordering ...core.Ordering) ([]Lead, error) {
	filter.Clean()
	if filter.IsEmpty() {
		return svc.QueryAll(ordering...)
	}
	leads, err := svc.repo.FilterLeads(filter)
	if err != nil {
		return nil, errors.Wrap(err, "filtering leads")
	}
	return sortLeads(leads, ordering)
}

func (svc *service) Stats() (Stats, error) {
	leads, err := svc.repo.QueryAllLeads()
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying leads")
	}

	stats := Stats{
		Total:     len(leads),
		ByQuality: make(map[string]int, len(scoring.Qualities)),
		ByStatus:  make(map[string]int, len(Statuses)),
	}
	for _, q := range scoring.Qualities {
		stats.ByQuality[q] = 0
	}
	for _, s := range Statuses {
		stats.ByStatus[s] = 0
	}
	for _, l := range leads {
		stats.ByQuality[l.Quality]++
		stats.ByStatus[l.Status]++
	}
	if stats.Total > 0 {
		rate := float64(stats.ByStatus[StatusConverted]) / float64(stats.Total) * 100
		stats.ConversionRate = math.Round(rate*10) / 10
	}
	return stats, nil
}

func (svc *service) Wait() {
	svc.wg.Wait()
}

// sortLeads orders leads in place. Ties on every requested field keep newest first.
func sortLeads(leads []Lead, ordering []core.Ordering) ([]Lead, error) {
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	for _, ord := range ordering {
		if _, ok := orderingFields[ord.Field]; !ok {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "ordering", Error: "unknown ordering field: " + ord.Field})
		}
	}

	sort.SliceStable(leads, func(i, j int) bool {
		for _, ord := range ordering {
			c := orderingFields[ord.Field](leads[i], leads[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return leads[i].ID > leads[j].ID
	})
	return leads, nil
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
