package memstore

import (
	"context"
	"sort"

	"questify/models"
	"questify/store"
)

type badges struct{ s *Store }

func sortBadges(bs []models.Badge) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Name != bs[j].Name {
			return bs[i].Name < bs[j].Name
		}
		return bs[i].ID < bs[j].ID
	})
}

func (r badges) Get(_ context.Context, id string) (*models.Badge, error) {
	var out models.Badge
	err := r.s.do("badges.get", func(t *tables) error {
		b, ok := t.badges[id]
		if !ok {
			return store.ErrNotFound
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r badges) List(_ context.Context) ([]models.Badge, error) {
	var out []models.Badge
	err := r.s.do("badges.list", func(t *tables) error {
		out = make([]models.Badge, 0, len(t.badges))
		for _, b := range t.badges {
			out = append(out, b)
		}
		sortBadges(out)
		return nil
	})
	return out, err
}

func (r badges) Eligible(_ context.Context, xp int64) ([]models.Badge, error) {
	var out []models.Badge
	err := r.s.do("badges.eligible", func(t *tables) error {
		out = make([]models.Badge, 0)
		for _, b := range t.badges {
			if b.EligibleAt(xp) {
				out = append(out, b)
			}
		}
		sortBadges(out)
		return nil
	})
	return out, err
}

func (r badges) Create(_ context.Context, b *models.Badge) error {
	return r.s.do("badges.create", func(t *tables) error {
		if _, ok := t.badges[b.ID]; ok {
			return store.ErrConflict
		}
		for _, other := range t.badges {
			if other.Code == b.Code {
				return store.ErrConflict
			}
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = r.s.now()
		}
		t.badges[b.ID] = *b
		return nil
	})
}

func (r badges) Save(_ context.Context, b *models.Badge) error {
	return r.s.do("badges.save", func(t *tables) error {
		cur, ok := t.badges[b.ID]
		if !ok {
			return store.ErrNotFound
		}
		for id, other := range t.badges {
			if id != b.ID && other.Code == b.Code {
				return store.ErrConflict
			}
		}
		b.CreatedAt = cur.CreatedAt
		t.badges[b.ID] = *b
		return nil
	})
}

func (r badges) Delete(_ context.Context, id string) error {
	return r.s.do("badges.delete", func(t *tables) error {
		if _, ok := t.badges[id]; !ok {
			return store.ErrNotFound
		}
		delete(t.badges, id)
		for k, ub := range t.userBadges {
			if ub.BadgeID == id {
				delete(t.userBadges, k)
			}
		}
		return nil
	})
}

type userBadges struct{ s *Store }

func (r userBadges) HeldBadgeIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	held := make(map[string]struct{})
	err := r.s.do("user_badges.held", func(t *tables) error {
		for _, ub := range t.userBadges {
			if ub.UserID == userID {
				held[ub.BadgeID] = struct{}{}
			}
		}
		return nil
	})
	return held, err
}

func (r userBadges) Award(_ context.Context, ub *models.UserBadge) (bool, error) {
	var created bool
	err := r.s.do("user_badges.award", func(t *tables) error {
		key := ub.UserID + "/" + ub.BadgeID
		if _, ok := t.userBadges[key]; ok {
			return nil
		}
		if ub.EarnedAt.IsZero() {
			ub.EarnedAt = r.s.now()
		}
		stored := *ub
		stored.Badge = nil
		t.userBadges[key] = stored
		created = true
		return nil
	})
	return created, err
}

func (r userBadges) ListByUser(_ context.Context, userID string) ([]models.UserBadge, error) {
	var out []models.UserBadge
	err := r.s.do("user_badges.list", func(t *tables) error {
		out = make([]models.UserBadge, 0)
		for _, ub := range t.userBadges {
			if ub.UserID != userID {
				continue
			}
			if b, ok := t.badges[ub.BadgeID]; ok {
				ub.Badge = &b
			}
			out = append(out, ub)
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
				return out[i].EarnedAt.After(out[j].EarnedAt)
			}
			return out[i].BadgeID < out[j].BadgeID
		})
		return nil
	})
	return out, err
}
