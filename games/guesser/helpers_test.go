package guesser_test

import (
	"fmt"
	"math/rand/v2"

	"github.com/FuYoshi/lol-guesser/games/guesser"
)

// sequenceRNG replays values, reduced modulo n.
type sequenceRNG struct {
	values []int
	idx    int
}

func (r *sequenceRNG) IntN(n int) int {
	v := r.values[r.idx%len(r.values)] % n
	r.idx++
	return v
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

const testAssetURL = "https://ddragon.leagueoflegends.com/cdn/12.20.1/"

// testData builds n champions whose ability names are all distinct.
func testData(n int) guesser.ChampionData {
	champions := make(map[string]guesser.Champion, n)
	for i := range n {
		id := fmt.Sprintf("Champ%02d", i)
		champ := guesser.Champion{
			Passive: guesser.Ability{Name: id + " Passive", Image: id + "_P.png"},
		}
		for _, key := range []string{"Q", "W", "E", "R"} {
			champ.Spells = append(champ.Spells, guesser.Ability{
				Name:  id + " " + key,
				Image: id + key + ".png",
			})
		}
		champions[id] = champ
	}

	return guesser.NewChampionData(testAssetURL, champions)
}

func ahriData() guesser.ChampionData {
	return guesser.NewChampionData(testAssetURL, map[string]guesser.Champion{
		"Ahri": {
			Passive: guesser.Ability{Name: "Vastayan Grace", Image: "Ahri_P.png"},
			Spells: []guesser.Ability{
				{Name: "Orb of Deception", Image: "Ahri_Q.png"},
				{Name: "Fox-Fire", Image: "Ahri_W.png"},
				{Name: "Charm", Image: "Ahri_E.png"},
				{Name: "Spirit Rush", Image: "Ahri_R.png"},
			},
		},
	})
}
