package service

import (
	"context"
	"sync"

	"github.com/chainfolio/foliogate/internal/config"
	"github.com/chainfolio/foliogate/internal/model"
	"golang.org/x/time/rate"
)

// OrgRepo is the persistence fallback for organizations not listed in the
// config file.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*model.Organization, error)
}

// OrgManager holds organization settings and their rate limiters.
//
// Any x-organization-id is accepted: IDs not found in config or the repo
// are registered on first use with default settings, matching the
// original gateway which never rejected unknown organizations.
type OrgManager struct {
	mu       sync.RWMutex
	orgs     map[string]*model.Organization
	limiters map[string]*rate.Limiter
	repo     OrgRepo
}

func NewOrgManager(cfg *config.Config, repo OrgRepo) *OrgManager {
	m := &OrgManager{
		orgs:     make(map[string]*model.Organization),
		limiters: make(map[string]*rate.Limiter),
		repo:     repo,
	}

	if cfg != nil {
		for _, orgCfg := range cfg.Organizations {
			m.Register(&model.Organization{
				ID:            orgCfg.ID,
				Name:          orgCfg.Name,
				AllowedChains: orgCfg.AllowedChains,
				Rate: model.RateLimitSettings{
					QPS:   orgCfg.Rate.QPS,
					Burst: orgCfg.Rate.Burst,
				},
			})
		}
	}

	return m
}

func (m *OrgManager) Register(org *model.Organization) {
	if org == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgs[org.ID] = org

	limit := rate.Limit(org.Rate.QPS)
	if limit == 0 {
		limit = rate.Inf
	}
	burst := org.Rate.Burst
	if burst == 0 {
		burst = 1
	}
	m.limiters[org.ID] = rate.NewLimiter(limit, burst)
}

// Resolve returns the organization for an ID, consulting config, the
// repo, and finally registering an ad-hoc default entry.
func (m *OrgManager) Resolve(ctx context.Context, id string) *model.Organization {
	m.mu.RLock()
	org, ok := m.orgs[id]
	m.mu.RUnlock()
	if ok {
		return org
	}

	if m.repo != nil {
		if fromRepo, err := m.repo.GetByID(ctx, id); err == nil && fromRepo != nil {
			m.Register(fromRepo)
			return fromRepo
		}
	}

	org = &model.Organization{ID: id, Name: id}
	m.Register(org)
	return org
}

func (m *OrgManager) Limiter(orgID string) *rate.Limiter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.limiters[orgID]
}

func (m *OrgManager) List() []*model.Organization {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := make([]*model.Organization, 0, len(m.orgs))
	for _, org := range m.orgs {
		results = append(results, org)
	}
	return results
}
