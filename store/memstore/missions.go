package memstore

import (
	"context"
	"sort"

	"questify/models"
	"questify/store"
)

type missions struct{ s *Store }

func (r missions) Get(_ context.Context, id string) (*models.Mission, error) {
	var out models.Mission
	err := r.s.do("missions.get", func(t *tables) error {
		m, ok := t.missions[id]
		if !ok {
			return store.ErrNotFound
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type missionProgress struct{ s *Store }

func (r missionProgress) Get(_ context.Context, userID, missionID string) (*models.MissionProgress, error) {
	var out models.MissionProgress
	err := r.s.do("user_progress.get", func(t *tables) error {
		p, ok := t.progress[userID+"/"+missionID]
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

func (r missionProgress) Save(_ context.Context, p *models.MissionProgress) error {
	return r.s.do("user_progress.save", func(t *tables) error {
		key := p.UserID + "/" + p.MissionID
		now := r.s.now()
		if cur, ok := t.progress[key]; ok {
			p.ID = cur.ID
			p.CreatedAt = cur.CreatedAt
		} else if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		t.progress[key] = *p
		return nil
	})
}

func (r missionProgress) ListByUser(_ context.Context, userID string) ([]models.MissionProgress, error) {
	var out []models.MissionProgress
	err := r.s.do("user_progress.list", func(t *tables) error {
		out = make([]models.MissionProgress, 0)
		for _, p := range t.progress {
			if p.UserID == userID {
				out = append(out, p)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
				return out[i].UpdatedAt.After(out[j].UpdatedAt)
			}
			return out[i].MissionID < out[j].MissionID
		})
		return nil
	})
	return out, err
}
