package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"questify/services"
)

type badgeCatalog struct {
	Badges []badgeSeed `yaml:"badges"`
}

type badgeSeed struct {
	Code              string  `yaml:"code"`
	Name              string  `yaml:"name"`
	Description       string  `yaml:"description"`
	Icon              string  `yaml:"icon"`
	RequiredXP        *int64  `yaml:"required_xp"`
	RequiredMissionID *string `yaml:"required_mission_id"`
}

func (s badgeSeed) input() services.BadgeInput {
	return services.BadgeInput{
		Code:              s.Code,
		Name:              s.Name,
		Description:       s.Description,
		Icon:              s.Icon,
		RequiredXP:        s.RequiredXP,
		RequiredMissionID: s.RequiredMissionID,
	}
}

func parseBadgeSeeds(r io.Reader) ([]badgeSeed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cat badgeCatalog
	if err := dec.Decode(&cat); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("badge catalog is empty")
		}
		return nil, errors.Wrap(err, "parse badge catalog")
	}
	if len(cat.Badges) == 0 {
		return nil, errors.New("badge catalog has no badges")
	}
	return cat.Badges, nil
}

// seedBadges upserts every seed, stopping at the first failure.
func seedBadges(ctx context.Context, badges *services.BadgeService, seeds []badgeSeed) (created, updated int, err error) {
	for i, s := range seeds {
		_, isNew, err := badges.Upsert(ctx, s.input())
		if err != nil {
			return created, updated, errors.Wrapf(err, "badge #%d (%s)", i+1, s.Name)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}
