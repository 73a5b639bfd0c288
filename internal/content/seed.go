package content

import (
	"encoding/json"
	"errors"
	"fmt"
)

// defaults is the starter content written by Seed.
func defaults() map[Type]any {
	services := []Service{
		{ID: "1", Title: "Commercials", Description: "Brand films and social spots, from concept to final grade."},
		{ID: "2", Title: "Events", Description: "Multi-camera coverage and same-day edits."},
	}
	equipment := Equipment{
		Items:      []EquipmentItem{},
		Categories: []string{"Cameras", "Lenses", "Audio", "Lighting"},
	}
	return map[Type]any{
		TypeVideos:      []Video{},
		TypeBrands:      []Brand{},
		TypeServices:    services,
		TypeEquipment:   equipment,
		TypeContact:     Contact{},
		TypeBackgrounds: Backgrounds{},
	}
}

// Seed writes starter content for every type whose file is missing, or for
// all of them when force is set. It returns the types it wrote.
func (s *Store) Seed(force bool) ([]Type, error) {
	seeds := defaults()
	var written []Type
	for _, t := range Types {
		if !force {
			_, err := s.Read(t)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return written, err
			}
		}

		data, err := json.Marshal(seeds[t])
		if err != nil {
			return written, fmt.Errorf("encode %s: %w", t, err)
		}
		if err := s.Write(t, data); err != nil {
			return written, err
		}
		written = append(written, t)
	}
	return written, nil
}
