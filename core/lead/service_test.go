package lead_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/edulead/core"
	"github.com/trezcool/edulead/core/lead"
	"github.com/trezcool/edulead/core/scoring"
	emailsvc "github.com/trezcool/edulead/services/email"
	inmemdb "github.com/trezcool/edulead/storage/database/inmem"
	"github.com/trezcool/edulead/tests"
)

type crmStub struct {
	id    string
	err   error
	calls int32
}

func (c *crmStub) SyncLead(_ context.Context, _ lead.Lead) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.id, c.err
}

type env struct {
	repo   lead.Repository
	logger *testutil.Logger
	svc    lead.Service
}

func setup(t *testing.T, mock bool, opts ...lead.Option) env {
	t.Helper()
	validate, _ := testutil.NewValidator()
	e := env{
		repo:   inmemdb.NewLeadRepository(inmemdb.Open()),
		logger: testutil.NewLogger(),
	}
	opts = append([]lead.Option{lead.WithScorer(scoring.NewScorer(scoring.WithJitter(func() float64 { return .5 })))}, opts...)
	if mock {
		e.svc = lead.NewServiceMock(e.repo, validate, e.logger, opts...)
	} else {
		e.svc = lead.NewService(e.repo, validate, e.logger, opts...)
	}
	return e
}

func freezeTime(t *testing.T, now time.Time) {
	lead.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { lead.NowFunc = time.Now })
}

func intPtr(i int) *int { return &i }

func annLead() lead.NewLead {
	return lead.NewLead{
		Name:        "Ann",
		Email:       "a@x.com",
		Interest:    "ai-machine-learning",
		DegreeLevel: "doctoral",
		Timeline:    "immediately",
	}
}

func TestService_Create(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	freezeTime(t, now)
	e := setup(t, false)

	nl := lead.NewLead{
		Name:        "  Grace Hopper ",
		Email:       "Grace@Navy.MIL",
		Phone:       "+1 555 0100",
		Age:         intPtr(34),
		Location:    "Arlington",
		Interest:    "computer-science",
		DegreeLevel: "masters",
		Timeline:    "1-3months",
		Comments:    "career change into compilers",
	}
	created, err := e.svc.Create(nl)
	if err != nil {
		t.Fatalf("Create() unexpected error = %v", err)
	}

	want := lead.Lead{
		ID:          created.ID,
		Name:        "Grace Hopper",
		Email:       "grace@navy.mil",
		Phone:       "+1 555 0100",
		Age:         intPtr(34),
		Location:    "Arlington",
		Interest:    "computer-science",
		DegreeLevel: "masters",
		Timeline:    "1-3months",
		Comments:    "career change into compilers",
		Score:       created.Score,
		Quality:     created.Quality,
		Status:      lead.StatusNew,
		Prediction:  created.Prediction,
		CRMSynced:   false,
		CRMID:       nil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	assert.Equal(t, want, created)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, scoring.Tier(created.Score), created.Quality)

	got, err := e.svc.GetByID(created.ID)
	assert.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestService_Create_topProfile(t *testing.T) {
	validate, _ := testutil.NewValidator()
	// real jitter: the top profile is high whatever the draw
	svc := lead.NewService(inmemdb.NewLeadRepository(inmemdb.Open()), validate, testutil.NewLogger())
	for i := 0; i < 20; i++ {
		l, err := svc.Create(annLead())
		if assert.NoError(t, err) {
			assert.GreaterOrEqual(t, l.Score, 80)
			assert.Equal(t, scoring.QualityHigh, l.Quality)
		}
	}
}

func TestService_Create_validation(t *testing.T) {
	e := setup(t, false)

	tests := []struct {
		name      string
		nl        lead.NewLead
		wantField string
		wantTag   string
	}{
		{name: "missing name", nl: lead.NewLead{Email: "a@x.com", Interest: "arts"}, wantField: "name", wantTag: "required"},
		{name: "blank name", nl: lead.NewLead{Name: "   ", Email: "a@x.com", Interest: "arts"}, wantField: "name", wantTag: "required"},
		{name: "missing email", nl: lead.NewLead{Name: "A", Interest: "arts"}, wantField: "email", wantTag: "required"},
		{name: "invalid email", nl: lead.NewLead{Name: "A", Email: "nope", Interest: "arts"}, wantField: "email", wantTag: "email"},
		{name: "missing interest", nl: lead.NewLead{Name: "A", Email: "a@x.com"}, wantField: "interest", wantTag: "required"},
		{name: "age too high", nl: lead.NewLead{Name: "A", Email: "a@x.com", Interest: "arts", Age: intPtr(130)}, wantField: "age", wantTag: "max"},
		{name: "negative age", nl: lead.NewLead{Name: "A", Email: "a@x.com", Interest: "arts", Age: intPtr(-1)}, wantField: "age", wantTag: "min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Create(tt.nl)
			var vErrs validator.ValidationErrors
			if assert.True(t, errors.As(err, &vErrs), "error = %v", err) {
				assert.Equal(t, tt.wantField, vErrs[0].Field())
				assert.Equal(t, tt.wantTag, vErrs[0].Tag())
			}
		})
	}

	leads, _ := e.svc.QueryAll()
	assert.Empty(t, leads)
}

func TestService_Create_crmSync(t *testing.T) {
	t.Run("success stamps the lead", func(t *testing.T) {
		crm := &crmStub{id: "CRM-123"}
		e := setup(t, false, lead.WithCRM(crm, time.Second))

		created, err := e.svc.Create(annLead())
		if err != nil {
			t.Fatalf("Create() unexpected error = %v", err)
		}
		e.svc.Wait()

		got, _ := e.svc.GetByID(created.ID)
		assert.True(t, got.CRMSynced)
		if assert.NotNil(t, got.CRMID) {
			assert.Equal(t, "CRM-123", *got.CRMID)
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(&crm.calls))
		assert.Equal(t, created.Score, got.Score)
	})

	t.Run("failure is logged and swallowed", func(t *testing.T) {
		crm := &crmStub{err: errors.New("crm unavailable")}
		e := setup(t, false, lead.WithCRM(crm, time.Second))

		created, err := e.svc.Create(annLead())
		assert.NoError(t, err)
		e.svc.Wait()

		got, _ := e.svc.GetByID(created.ID)
		assert.False(t, got.CRMSynced)
		assert.Nil(t, got.CRMID)

		errs := e.logger.Entries("error")
		if assert.Len(t, errs, 1) {
			assert.Equal(t, "syncing lead to CRM", errs[0].Msg)
		}
	})

	t.Run("mock syncs before returning", func(t *testing.T) {
		e := setup(t, true, lead.WithCRM(&crmStub{id: "CRM-9"}, time.Second))

		created, err := e.svc.Create(annLead())
		assert.NoError(t, err)
		assert.True(t, created.CRMSynced)
		if assert.NotNil(t, created.CRMID) {
			assert.Equal(t, "CRM-9", *created.CRMID)
		}
	})
}

func TestService_Create_notifications(t *testing.T) {
	emailsvc.ResetSentMessages()
	logger := testutil.NewLogger()
	mailSvc := emailsvc.NewConsoleServiceMock(testutil.NewConfig(), logger)
	e := setup(t, true, lead.WithNotifications(mailSvc, "admissions@edulead.test"))

	high, err := e.svc.Create(annLead())
	assert.NoError(t, err)
	_, err = e.svc.Create(lead.NewLead{Name: "Bob", Email: "b@x.com", Interest: "arts"})
	assert.NoError(t, err)

	sent := emailsvc.GetSentMessages()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "admissions@edulead.test", sent[0].To[0].Address)
		assert.Equal(t, "New high-quality lead: "+high.Name, sent[0].Subject)
		assert.Contains(t, sent[0].TextContent, high.Email)
	}
	assert.Empty(t, logger.Entries("error"))
}

func TestService_Score(t *testing.T) {
	e := setup(t, false)

	res, err := e.svc.Score(lead.ScoreRequest{Interest: "ai-machine-learning", DegreeLevel: "doctoral", Timeline: "immediately"})
	assert.NoError(t, err)
	assert.Equal(t, 86, res.Score)
	assert.Equal(t, scoring.QualityHigh, res.Quality)

	_, err = e.svc.Score(lead.ScoreRequest{})
	var vErrs validator.ValidationErrors
	assert.True(t, errors.As(err, &vErrs))

	leads, _ := e.svc.QueryAll()
	assert.Empty(t, leads, "score preview must not store anything")
}

func TestService_UpdateStatus(t *testing.T) {
	e := setup(t, false)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l1 := testutil.CreateLead(t, e.repo, lead.Lead{Name: "One", Email: "1@x.com", Interest: "arts", CreatedAt: created})
	l2 := testutil.CreateLead(t, e.repo, lead.Lead{Name: "Two", Email: "2@x.com", Interest: "arts", CreatedAt: created.Add(time.Hour)})

	t.Run("unknown lead", func(t *testing.T) {
		before, _ := e.svc.QueryAll()
		_, err := e.svc.UpdateStatus(999, lead.UpdateStatus{Status: lead.StatusQualified})
		assert.Equal(t, lead.ErrNotFound, err)
		after, _ := e.svc.QueryAll()
		assert.Equal(t, before, after)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := e.svc.UpdateStatus(l1.ID, lead.UpdateStatus{Status: "won"})
		var vErrs validator.ValidationErrors
		if assert.True(t, errors.As(err, &vErrs)) {
			assert.Equal(t, "status", vErrs[0].Field())
		}
	})

	t.Run("any transition is allowed", func(t *testing.T) {
		now := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
		freezeTime(t, now)

		for _, status := range []string{lead.StatusConverted, lead.StatusNew, " Contacted "} {
			updated, err := e.svc.UpdateStatus(l1.ID, lead.UpdateStatus{Status: status})
			if assert.NoError(t, err) {
				assert.Equal(t, core.CleanString(status, true), updated.Status)
				assert.Equal(t, now, updated.UpdatedAt)

				// only status and updated_at change
				want := l1
				want.Status = updated.Status
				want.UpdatedAt = now
				assert.Equal(t, want, updated)
			}
		}

		other, _ := e.svc.GetByID(l2.ID)
		assert.Equal(t, l2, other)
	})
}

func TestService_Filter(t *testing.T) {
	e := setup(t, false)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cyber := testutil.CreateLead(t, e.repo, lead.Lead{Name: "Ann", Email: "ann@x.com", Interest: "Cybersecurity", Quality: "high", Status: lead.StatusNew, CreatedAt: base})
	data := testutil.CreateLead(t, e.repo, lead.Lead{Name: "Bob", Email: "bob@x.com", Interest: "data-science", Location: "Kinshasa", Quality: "medium", Status: lead.StatusContacted, CreatedAt: base.Add(time.Hour)})
	arts := testutil.CreateLead(t, e.repo, lead.Lead{Name: "Cid", Email: "cid@x.com", Interest: "arts", Comments: "Loves DATA too", Quality: "low", Status: lead.StatusContacted, CreatedAt: base.Add(2 * time.Hour)})

	t.Run("search is case-insensitive", func(t *testing.T) {
		leads, err := e.svc.Search("cybersecurity")
		assert.NoError(t, err)
		assert.Equal(t, []lead.Lead{cyber}, leads)
	})

	t.Run("search matches any field", func(t *testing.T) {
		leads, _ := e.svc.Search("data")
		assert.Equal(t, []lead.Lead{arts, data}, leads)

		leads, _ = e.svc.Search("kinshasa")
		assert.Equal(t, []lead.Lead{data}, leads)

		leads, _ = e.svc.Search("nobody")
		assert.Empty(t, leads)
	})

	t.Run("by quality", func(t *testing.T) {
		leads, _ := e.svc.FilterByQuality("HIGH")
		assert.Equal(t, []lead.Lead{cyber}, leads)
	})

	t.Run("by status", func(t *testing.T) {
		leads, _ := e.svc.FilterByStatus(lead.StatusContacted)
		assert.Equal(t, []lead.Lead{arts, data}, leads)
	})

	t.Run("fields are ANDed", func(t *testing.T) {
		leads, _ := e.svc.Filter(lead.QueryFilter{Status: lead.StatusContacted, Quality: "low", Search: "data"})
		assert.Equal(t, []lead.Lead{arts}, leads)
	})

	t.Run("empty filter lists all", func(t *testing.T) {
		leads, _ := e.svc.Filter(lead.QueryFilter{})
		assert.Equal(t, []lead.Lead{arts, data, cyber}, leads)
	})
}

func TestService_QueryAll_ordering(t *testing.T) {
	e := setup(t, false)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testutil.CreateLead(t, e.repo, lead.Lead{Name: "bea", Interest: "arts", Score: 50, CreatedAt: base})
	b := testutil.CreateLead(t, e.repo, lead.Lead{Name: "Al", Interest: "arts", Score: 90, CreatedAt: base.Add(time.Hour)})
	c := testutil.CreateLead(t, e.repo, lead.Lead{Name: "cy", Interest: "arts", Score: 50, CreatedAt: base.Add(time.Hour)})

	tests := []struct {
		name     string
		ordering []core.Ordering
		want     []lead.Lead
	}{
		{name: "default: newest first, ties by id", want: []lead.Lead{c, b, a}},
		{name: "oldest first, ties newest id first", ordering: []core.Ordering{{Field: "created_at", Ascending: true}}, want: []lead.Lead{a, c, b}},
		{name: "by name", ordering: []core.Ordering{{Field: "name", Ascending: true}}, want: []lead.Lead{b, a, c}},
		{name: "by score then id", ordering: []core.Ordering{{Field: "score", Ascending: false}, {Field: "id", Ascending: true}}, want: []lead.Lead{b, a, c}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leads, err := e.svc.QueryAll(tt.ordering...)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, leads)
		})
	}

	_, err := e.svc.QueryAll(core.Ordering{Field: "email"})
	var vErr *core.ValidationError
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, "ordering", vErr.Fields[0].Field)
	}
}

func TestService_Stats(t *testing.T) {
	e := setup(t, false)

	t.Run("empty store", func(t *testing.T) {
		stats, err := e.svc.Stats()
		assert.NoError(t, err)
		assert.Equal(t, lead.Stats{
			Total:          0,
			ByQuality:      map[string]int{"high": 0, "medium": 0, "low": 0},
			ByStatus:       map[string]int{"new": 0, "contacted": 0, "qualified": 0, "converted": 0},
			ConversionRate: 0,
		}, stats)
	})

	t.Run("counts and conversion rate", func(t *testing.T) {
		testutil.CreateLead(t, e.repo, lead.Lead{Name: "A", Quality: "high", Status: lead.StatusConverted})
		testutil.CreateLead(t, e.repo, lead.Lead{Name: "B", Quality: "high", Status: lead.StatusNew})
		testutil.CreateLead(t, e.repo, lead.Lead{Name: "C", Quality: "low", Status: lead.StatusQualified})

		stats, err := e.svc.Stats()
		assert.NoError(t, err)
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, map[string]int{"high": 2, "medium": 0, "low": 1}, stats.ByQuality)
		assert.Equal(t, map[string]int{"new": 1, "contacted": 0, "qualified": 1, "converted": 1}, stats.ByStatus)
		assert.Equal(t, 33.3, stats.ConversionRate)
	})
}
