package memstore

import (
	"context"
	"sort"

	"questify/models"
	"questify/store"
)

type profiles struct{ s *Store }

func (r profiles) Get(_ context.Context, id string) (*models.Profile, error) {
	var out models.Profile
	err := r.s.do("profiles.get", func(t *tables) error {
		p, ok := t.profiles[id]
		if !ok {
			return store.ErrNotFound
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r profiles) GetForUpdate(ctx context.Context, id string) (*models.Profile, error) {
	return r.Get(ctx, id)
}

func (r profiles) GetMany(_ context.Context, ids []string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(ids))
	err := r.s.do("profiles.get_many", func(t *tables) error {
		for _, id := range ids {
			if p, ok := t.profiles[id]; ok {
				out[id] = p
			}
		}
		return nil
	})
	return out, err
}

func (r profiles) Create(_ context.Context, p *models.Profile) error {
	return r.s.do("profiles.create", func(t *tables) error {
		if _, ok := t.profiles[p.ID]; ok {
			return store.ErrConflict
		}
		for _, other := range t.profiles {
			if other.Username == p.Username {
				return store.ErrConflict
			}
		}
		now := r.s.now()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		t.profiles[p.ID] = *p
		return nil
	})
}

func (r profiles) Upsert(_ context.Context, p *models.Profile) error {
	return r.s.do("profiles.upsert", func(t *tables) error {
		for id, other := range t.profiles {
			if id != p.ID && other.Username == p.Username {
				return store.ErrConflict
			}
		}
		now := r.s.now()
		if cur, ok := t.profiles[p.ID]; ok {
			cur.Username = p.Username
			cur.AvatarURL = p.AvatarURL
			cur.UpdatedAt = now
			t.profiles[p.ID] = cur
			*p = cur
			return nil
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		t.profiles[p.ID] = *p
		return nil
	})
}

func (r profiles) Save(_ context.Context, p *models.Profile) error {
	return r.s.do("profiles.save", func(t *tables) error {
		if _, ok := t.profiles[p.ID]; !ok {
			return store.ErrNotFound
		}
		for id, other := range t.profiles {
			if id != p.ID && other.Username == p.Username {
				return store.ErrConflict
			}
		}
		p.UpdatedAt = r.s.now()
		t.profiles[p.ID] = *p
		return nil
	})
}

func (r profiles) all(t *tables) []models.Profile {
	out := make([]models.Profile, 0, len(t.profiles))
	for _, p := range t.profiles {
		out = append(out, p)
	}
	return out
}

func (r profiles) List(_ context.Context, page store.Page) ([]models.Profile, error) {
	var out []models.Profile
	err := r.s.do("profiles.list", func(t *tables) error {
		all := r.all(t)
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].ID < all[j].ID
		})
		out = paginate(all, page)
		return nil
	})
	return out, err
}

func (r profiles) TopByXP(_ context.Context, limit int) ([]models.Profile, error) {
	var out []models.Profile
	err := r.s.do("profiles.top_by_xp", func(t *tables) error {
		all := r.all(t)
		sort.Slice(all, func(i, j int) bool {
			if all[i].XP != all[j].XP {
				return all[i].XP > all[j].XP
			}
			return all[i].Username < all[j].Username
		})
		out = paginate(all, store.Page{Limit: limit})
		return nil
	})
	return out, err
}

func (r profiles) ResetDailyXP(_ context.Context, id string) error {
	return r.s.do("profiles.reset_daily_xp", func(t *tables) error {
		p, ok := t.profiles[id]
		if !ok {
			return store.ErrNotFound
		}
		p.DailyXP = 0
		p.UpdatedAt = r.s.now()
		t.profiles[id] = p
		return nil
	})
}

func (r profiles) ResetAllDailyXP(_ context.Context) (int64, error) {
	var n int64
	err := r.s.do("profiles.reset_all_daily_xp", func(t *tables) error {
		now := r.s.now()
		for id, p := range t.profiles {
			if p.DailyXP == 0 {
				continue
			}
			p.DailyXP = 0
			p.UpdatedAt = now
			t.profiles[id] = p
			n++
		}
		return nil
	})
	return n, err
}

func paginate[T any](items []T, page store.Page) []T {
	if page.Offset > 0 {
		if page.Offset >= len(items) {
			return []T{}
		}
		items = items[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
