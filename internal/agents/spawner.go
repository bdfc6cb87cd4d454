// Caravan spawning: identities, names and starting purses.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/caravans/internal/economy"
	"github.com/talgya/caravans/internal/world"
)

// Spawner creates caravans with reproducible identities.
type Spawner struct {
	rng   *rand.Rand
	goods *economy.Catalog
	used  map[string]bool
}

// NewSpawner creates a caravan spawner with the given seed.
func NewSpawner(seed int64, goods *economy.Catalog) *Spawner {
	return &Spawner{
		rng:   rand.New(rand.NewSource(seed + 300)),
		goods: goods,
		used:  make(map[string]bool),
	}
}

// Spawn creates a caravan at pos with the default purse, give or take a
// quarter.
func (s *Spawner) Spawn(pos world.Coord) *Caravan {
	money := DefaultStartMoney*3/4 + s.rng.Intn(DefaultStartMoney/2+1)
	return NewCaravan(s.newID(), s.generateName(), pos, money, s.goods)
}

// Reserve marks name as taken, for caravans restored from storage.
func (s *Spawner) Reserve(name string) {
	s.used[name] = true
}

func (s *Spawner) newID() string {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Spawner) generateName() string {
	for range 8 {
		name := firstNames[s.rng.Intn(len(firstNames))] + " " + houseNames[s.rng.Intn(len(houseNames))]
		if !s.used[name] {
			s.used[name] = true
			return name
		}
	}
	// Every quick pick was taken; fall back to a numbered name.
	name := fmt.Sprintf("%s Company %d", houseNames[s.rng.Intn(len(houseNames))], len(s.used)+1)
	s.used[name] = true
	return name
}

// Name pools for procedural generation.
var firstNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
}

var houseNames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Greenvale", "Stormcrow", "Hearthstone", "Millward", "Copperfield",
	"Silverdale", "Deepwell", "Brightwater", "Redforge", "Goldhaven",
	"Riverstone", "Embercroft", "Holloway", "Farrow", "Mercer", "Thatcher",
}
