package profiles

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu        sync.RWMutex
	roles     map[string][]string
	keys      map[string]APIKeyRecord
	skills    map[string][]Skill
	activity  map[string]time.Time
	adminKeys map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		roles:     make(map[string][]string),
		keys:      make(map[string]APIKeyRecord),
		skills:    make(map[string][]Skill),
		activity:  make(map[string]time.Time),
		adminKeys: make(map[string]string),
	}
}

// SeedSkills stores skills for a user. The upstream extractors own these rows
// in production; the memory repo lets dev mode and tests provide them.
func (r *MemoryRepo) SeedSkills(userID string, skills ...Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for i := range skills {
		if skills[i].UpdatedAt.IsZero() {
			skills[i].UpdatedAt = now
		}
		if skills[i].UpdatedAt.After(r.activity[userID]) {
			r.activity[userID] = skills[i].UpdatedAt
		}
	}
	r.skills[userID] = append(r.skills[userID], skills...)
}

// TouchActivity records an external resume upload or GitHub sync.
func (r *MemoryRepo) TouchActivity(userID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if at.After(r.activity[userID]) {
		r.activity[userID] = at
	}
}

// SetAdminKey stores a system key row.
func (r *MemoryRepo) SetAdminKey(service, name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adminKeys[service+"/"+name] = value
}

func (r *MemoryRepo) ReplaceRoles(ctx context.Context, userID string, roles []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[userID] = append([]string(nil), roles...)
	return nil
}

func (r *MemoryRepo) ListRoles(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.roles[userID]...), nil
}

func (r *MemoryRepo) UpsertAPIKey(ctx context.Context, rec APIKeyRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := r.keys[rec.UserID]
	if ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	r.keys[rec.UserID] = rec
	return !ok, nil
}

func (r *MemoryRepo) GetActiveAPIKey(ctx context.Context, userID string) (APIKeyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.keys[userID]
	if !ok || !rec.IsActive {
		return APIKeyRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) ListSkills(ctx context.Context, userID string) ([]Skill, error) {
	r.mu.RLock()
	out := append([]Skill{}, r.skills[userID]...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ConfidenceScore > out[j].ConfidenceScore
	})
	return out, nil
}

func (r *MemoryRepo) ListEligibleUserIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for userID, skills := range r.skills {
		if len(skills) > 0 && len(r.roles[userID]) > 0 {
			out = append(out, userID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemoryRepo) LastActivity(ctx context.Context, userID string) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activity[userID], nil
}

func (r *MemoryRepo) AdminKey(ctx context.Context, service, name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.adminKeys[service+"/"+name]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

var _ Repo = (*MemoryRepo)(nil)
