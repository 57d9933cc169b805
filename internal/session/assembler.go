package session

import (
	"math/rand"
	"time"

	"github.com/example/wordpool/internal/curriculum"
	"github.com/example/wordpool/internal/database"
	"github.com/example/wordpool/internal/spacedrep"
)

// Assembler combines the catalog, the progress store, and
// internal/spacedrep's pure scheduler into the Learn/Practice/Review/Home
// contracts of spec.md §6. It holds no mutable state of its own.
type Assembler struct {
	words      *database.WordRepository
	progress   *database.ProgressRepository
	answers    *database.AnswerHistoryRepository
	curriculum *database.CurriculumRepository
	users      *database.UserRepository
	scheduler  *spacedrep.Scheduler
	selector   curriculum.Selector
}

// New wires an Assembler from concrete repositories and picks the
// curriculum selector appropriate for the current catalog.
func New(
	words *database.WordRepository,
	progress *database.ProgressRepository,
	answers *database.AnswerHistoryRepository,
	curr *database.CurriculumRepository,
	users *database.UserRepository,
) (*Assembler, error) {
	selector, err := curriculum.NewSelector(progress, users, curr)
	if err != nil {
		return nil, err
	}
	return &Assembler{
		words:      words,
		progress:   progress,
		answers:    answers,
		curriculum: curr,
		users:      users,
		scheduler:  spacedrep.New(),
		selector:   selector,
	}, nil
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
