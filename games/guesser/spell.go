/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guesser

import "fmt"

// Spell is one ability resolved for display: a name and an absolute icon URL.
type Spell struct {
	Champion string `json:"champion"`
	Slot     Slot   `json:"slot"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
}

// ResolveSpell looks up the ability in slot for championID.
func ResolveSpell(data ChampionData, championID string, slot Slot) (Spell, error) {
	if !slot.valid() {
		return Spell{}, fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}

	champ, ok := data.Champions[championID]
	if !ok {
		return Spell{}, fmt.Errorf("%w: %q", ErrChampionNotFound, championID)
	}

	var (
		ability Ability
		dir     string
	)
	if slot == SlotPassive {
		ability = champ.Passive
		dir = "img/passive/"
	} else {
		i := spellIndex[slot]
		if i >= len(champ.Spells) {
			return Spell{}, fmt.Errorf("%w: %q has no %s spell", ErrMalformedChampion, championID, slot)
		}
		ability = champ.Spells[i]
		dir = "img/spell/"
	}

	if ability.Name == "" || ability.Image == "" {
		return Spell{}, fmt.Errorf("%w: %q %s is missing a name or image", ErrMalformedChampion, championID, slot)
	}

	return Spell{
		Champion: championID,
		Slot:     slot,
		Name:     ability.Name,
		Icon:     data.AssetURL + dir + ability.Image,
	}, nil
}
