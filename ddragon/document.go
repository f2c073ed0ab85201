/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ddragon

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/FuYoshi/lol-guesser/games/guesser"
)

type document struct {
	Data map[string]championDoc `json:"data"`
}

type championDoc struct {
	Passive *abilityDoc  `json:"passive"`
	Spells  []abilityDoc `json:"spells"`
}

type abilityDoc struct {
	Name  string `json:"name"`
	Image *struct {
		Full string `json:"full"`
	} `json:"image"`
}

func (a *abilityDoc) ability() (guesser.Ability, bool) {
	if a == nil || a.Name == "" || a.Image == nil || a.Image.Full == "" {
		return guesser.Ability{}, false
	}

	return guesser.Ability{Name: a.Name, Image: a.Image.Full}, true
}

// Decode reads a championFull document and validates every champion in it.
// Icons resolve against assetURL.
func Decode(r io.Reader, assetURL string) (guesser.ChampionData, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return guesser.ChampionData{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	if len(doc.Data) == 0 {
		return guesser.ChampionData{}, fmt.Errorf("%w: no champions under \"data\"", ErrMalformedDocument)
	}

	ids := make([]string, 0, len(doc.Data))
	for id := range doc.Data {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	champions := make(map[string]guesser.Champion, len(ids))
	for _, id := range ids {
		champ, err := convertChampion(id, doc.Data[id])
		if err != nil {
			return guesser.ChampionData{}, err
		}
		champions[id] = champ
	}

	return guesser.NewChampionData(assetURL, champions), nil
}

func convertChampion(id string, doc championDoc) (guesser.Champion, error) {
	passive, ok := doc.Passive.ability()
	if !ok {
		return guesser.Champion{}, fmt.Errorf("%w: %q has no usable passive", ErrMalformedChampion, id)
	}

	if len(doc.Spells) != 4 {
		return guesser.Champion{}, fmt.Errorf("%w: %q has %d spells, want 4", ErrMalformedChampion, id, len(doc.Spells))
	}

	spells := make([]guesser.Ability, len(doc.Spells))
	for i := range doc.Spells {
		spell, ok := doc.Spells[i].ability()
		if !ok {
			return guesser.Champion{}, fmt.Errorf("%w: %q spell %d is missing a name or image", ErrMalformedChampion, id, i)
		}
		spells[i] = spell
	}

	return guesser.Champion{Passive: passive, Spells: spells}, nil
}
