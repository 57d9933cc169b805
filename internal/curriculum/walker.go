// Package curriculum walks the optional (Level, Category) grid a catalog
// may be organized into, selecting the next batch of unseen words for a
// user's Learn session. The Session Assembler depends only on the
// Selector interface, never on a concrete walker, so a catalog with no
// curriculum metadata degrades to plain order automatically.
package curriculum

import (
	"context"

	"github.com/example/wordpool/pkg/models"
)

// Selector picks the next batch of unseen catalog words for a user.
type Selector interface {
	NextWords(ctx context.Context, userID string, limit int) ([]models.Word, error)
}

// ProgressStore is the subset of the progress repository the walker
// needs: which words a user has no progress row for yet, scoped to one
// grid cell or to the whole catalog.
type ProgressStore interface {
	GetUnstartedByLevelCategory(userID string, levelID, categoryID int64, limit int) ([]models.Word, error)
	GetUnstartedAny(userID string, limit int) ([]models.Word, error)
}

// UserStore is the subset of the user repository the walker needs to
// read a user's curriculum pointer. The walker never writes the pointer.
type UserStore interface {
	GetByID(id string) (*models.User, error)
}

// CurriculumStore is the subset of the curriculum repository the walker
// needs: the ordered level/category lists.
type CurriculumStore interface {
	GetLevels() ([]models.Level, error)
	GetCategories() ([]models.Category, error)
}

// levelWalker implements the level/category grid traversal of
// spec.md §4.2: starting at the user's current (level, category), it
// pulls unseen words from that cell, then advances cell by cell (next
// category, wrapping to the next level) until the batch is full or the
// grid runs out.
type levelWalker struct {
	progress   ProgressStore
	users      UserStore
	curriculum CurriculumStore
}

// NewSelector returns the Selector appropriate for the current catalog:
// a levelWalker when curriculum rows exist, a plainOrder fallback
// otherwise. Chosen automatically, never configured.
func NewSelector(progress ProgressStore, users UserStore, curriculum CurriculumStore) (Selector, error) {
	levels, err := curriculum.GetLevels()
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return &plainOrder{progress: progress}, nil
	}
	return &levelWalker{progress: progress, users: users, curriculum: curriculum}, nil
}

func (w *levelWalker) NextWords(ctx context.Context, userID string, limit int) ([]models.Word, error) {
	user, err := w.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user.CurrentLevelID == nil || user.CurrentCategoryID == nil {
		return (&plainOrder{progress: w.progress}).NextWords(ctx, userID, limit)
	}

	levels, err := w.curriculum.GetLevels()
	if err != nil {
		return nil, err
	}
	categories, err := w.curriculum.GetCategories()
	if err != nil {
		return nil, err
	}

	levelIdx := indexOfLevel(levels, *user.CurrentLevelID)
	catIdx := indexOfCategory(categories, *user.CurrentCategoryID)
	if levelIdx == -1 || catIdx == -1 {
		return (&plainOrder{progress: w.progress}).NextWords(ctx, userID, limit)
	}

	var words []models.Word
	for len(words) < limit {
		if levelIdx >= len(levels) {
			break
		}
		if catIdx >= len(categories) {
			levelIdx++
			catIdx = 0
			continue
		}

		needed := limit - len(words)
		fetched, err := w.progress.GetUnstartedByLevelCategory(userID, levels[levelIdx].ID, categories[catIdx].ID, needed)
		if err != nil {
			return nil, err
		}
		words = append(words, fetched...)
		catIdx++
	}

	return words, nil
}

func indexOfLevel(levels []models.Level, id int64) int {
	for i, l := range levels {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func indexOfCategory(categories []models.Category, id int64) int {
	for i, c := range categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// plainOrder falls back to the whole catalog ordered by headword (not by
// insertion time): used when the catalog carries no curriculum metadata,
// or a user has no pointer yet.
type plainOrder struct {
	progress ProgressStore
}

func (p *plainOrder) NextWords(ctx context.Context, userID string, limit int) ([]models.Word, error) {
	return p.progress.GetUnstartedAny(userID, limit)
}

// RankOf returns the (level, category) rank of a word — its position in
// the ordered grid — used by complete_learn to decide whether to
// advance a user's curriculum pointer. Returns ok=false when either the
// word or the grid lacks the needed metadata.
func RankOf(levels []models.Level, categories []models.Category, word models.Word) (levelRank, catRank int, ok bool) {
	if word.LevelID == nil || word.CategoryID == nil {
		return 0, 0, false
	}
	levelRank = indexOfLevel(levels, *word.LevelID)
	catRank = indexOfCategory(categories, *word.CategoryID)
	if levelRank == -1 || catRank == -1 {
		return 0, 0, false
	}
	return levelRank, catRank, true
}
