/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guesser

import (
	"fmt"
	"slices"
	"strings"
)

// Slot identifies which of a champion's abilities is meant.
type Slot string

const (
	SlotQ       Slot = "Q"
	SlotW       Slot = "W"
	SlotE       Slot = "E"
	SlotR       Slot = "R"
	SlotPassive Slot = "P"
)

// AllSlots is the mode used when no slots are enabled.
var AllSlots = []Slot{SlotQ, SlotW, SlotE, SlotR, SlotPassive}

// spellIndex maps the active slots onto a champion's spell list.
var spellIndex = map[Slot]int{
	SlotQ: 0,
	SlotW: 1,
	SlotE: 2,
	SlotR: 3,
}

// ParseSlot accepts Q, W, E, R, P or Passive in any case.
func ParseSlot(s string) (Slot, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Q":
		return SlotQ, nil
	case "W":
		return SlotW, nil
	case "E":
		return SlotE, nil
	case "R":
		return SlotR, nil
	case "P", "PASSIVE":
		return SlotPassive, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidSlot, s)
}

// ParseSlots parses a mode, dropping duplicates. An empty input yields an
// empty mode, which level generation treats as every slot.
func ParseSlots(raw []string) ([]Slot, error) {
	slots := make([]Slot, 0, len(raw))
	for _, r := range raw {
		slot, err := ParseSlot(r)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(slots, slot) {
			slots = append(slots, slot)
		}
	}

	return slots, nil
}

func (s Slot) valid() bool {
	_, ok := spellIndex[s]
	return ok || s == SlotPassive
}

// Ability is a passive or a spell as listed in the champion data.
type Ability struct {
	Name  string
	Image string
}

// Champion holds one passive and the four spells in Q, W, E, R order.
type Champion struct {
	Passive Ability
	Spells  []Ability
}

// ChampionData is the full, read-only data set a game draws from.
type ChampionData struct {
	// AssetURL is the versioned CDN root icons are served from, with a
	// trailing slash, e.g. https://ddragon.leagueoflegends.com/cdn/12.20.1/
	AssetURL  string
	Champions map[string]Champion

	ids []string
}

// NewChampionData wraps champions with the asset root used for icon URLs.
func NewChampionData(assetURL string, champions map[string]Champion) ChampionData {
	if assetURL != "" && !strings.HasSuffix(assetURL, "/") {
		assetURL += "/"
	}

	ids := make([]string, 0, len(champions))
	for id := range champions {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ChampionData{
		AssetURL:  assetURL,
		Champions: champions,
		ids:       ids,
	}
}

// IDs returns the champion identifiers in sorted order, so draws are
// reproducible under a fixed seed.
func (d ChampionData) IDs() []string {
	if d.ids == nil && len(d.Champions) > 0 {
		return NewChampionData(d.AssetURL, d.Champions).ids
	}

	return slices.Clone(d.ids)
}

// Len is the number of champions available.
func (d ChampionData) Len() int {
	return len(d.Champions)
}
