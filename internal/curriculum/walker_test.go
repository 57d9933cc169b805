package curriculum

import (
	"context"
	"errors"
	"testing"

	"github.com/example/wordpool/pkg/models"
)

type fakeProgressStore struct {
	byCell map[[2]int64][]models.Word
	any    []models.Word
}

func (f *fakeProgressStore) GetUnstartedByLevelCategory(userID string, levelID, categoryID int64, limit int) ([]models.Word, error) {
	words := f.byCell[[2]int64{levelID, categoryID}]
	if len(words) > limit {
		words = words[:limit]
	}
	return words, nil
}

func (f *fakeProgressStore) GetUnstartedAny(userID string, limit int) ([]models.Word, error) {
	words := f.any
	if len(words) > limit {
		words = words[:limit]
	}
	return words, nil
}

type fakeUserStore struct {
	user *models.User
	err  error
}

func (f *fakeUserStore) GetByID(id string) (*models.User, error) {
	return f.user, f.err
}

type fakeCurriculumStore struct {
	levels     []models.Level
	categories []models.Category
}

func (f *fakeCurriculumStore) GetLevels() ([]models.Level, error)     { return f.levels, nil }
func (f *fakeCurriculumStore) GetCategories() ([]models.Category, error) { return f.categories, nil }

func word(id string, levelID, catID int64) models.Word {
	return models.Word{ID: id, LevelID: &levelID, CategoryID: &catID}
}

func TestNewSelector_EmptyGridFallsBackToPlainOrder(t *testing.T) {
	curr := &fakeCurriculumStore{}
	progress := &fakeProgressStore{any: []models.Word{word("w1", 1, 1)}}
	sel, err := NewSelector(progress, &fakeUserStore{}, curr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sel.(*plainOrder); !ok {
		t.Fatalf("expected plainOrder selector for an empty grid, got %T", sel)
	}
}

func TestNewSelector_NonEmptyGridUsesLevelWalker(t *testing.T) {
	curr := &fakeCurriculumStore{levels: []models.Level{{ID: 1, Label: "A1", Order: 0}}}
	sel, err := NewSelector(&fakeProgressStore{}, &fakeUserStore{}, curr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sel.(*levelWalker); !ok {
		t.Fatalf("expected levelWalker selector, got %T", sel)
	}
}

func TestLevelWalker_NoPointerFallsBackToPlainOrder(t *testing.T) {
	w := &levelWalker{
		progress:   &fakeProgressStore{any: []models.Word{word("w1", 1, 1)}},
		users:      &fakeUserStore{user: &models.User{ID: "u1"}},
		curriculum: &fakeCurriculumStore{levels: []models.Level{{ID: 1}}, categories: []models.Category{{ID: 1}}},
	}
	words, err := w.NextWords(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(words) != 1 || words[0].ID != "w1" {
		t.Fatalf("expected plain-order fallback result, got %v", words)
	}
}

func TestLevelWalker_TraversesGridCellByCell(t *testing.T) {
	levelA, levelB := int64(1), int64(2)
	catX, catY := int64(10), int64(20)

	progress := &fakeProgressStore{byCell: map[[2]int64][]models.Word{
		{levelA, catX}: {word("a-x-1", levelA, catX)},
		{levelA, catY}: {},
		{levelB, catX}: {word("b-x-1", levelB, catX), word("b-x-2", levelB, catX)},
	}}
	curr := &fakeCurriculumStore{
		levels:     []models.Level{{ID: levelA, Order: 0}, {ID: levelB, Order: 1}},
		categories: []models.Category{{ID: catX, Order: 0}, {ID: catY, Order: 1}},
	}
	w := &levelWalker{
		progress:   progress,
		users:      &fakeUserStore{user: &models.User{ID: "u1", CurrentLevelID: &levelA, CurrentCategoryID: &catX}},
		curriculum: curr,
	}

	words, err := w.NextWords(context.Background(), "u1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("expected 3 words from crossing into the next level, got %d: %v", len(words), words)
	}
	ids := []string{words[0].ID, words[1].ID, words[2].ID}
	want := []string{"a-x-1", "b-x-1", "b-x-2"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("word order = %v, want %v", ids, want)
		}
	}
}

func TestLevelWalker_UnknownPointerFallsBackToPlainOrder(t *testing.T) {
	stray := int64(999)
	w := &levelWalker{
		progress:   &fakeProgressStore{any: []models.Word{word("w1", 1, 1)}},
		users:      &fakeUserStore{user: &models.User{ID: "u1", CurrentLevelID: &stray, CurrentCategoryID: &stray}},
		curriculum: &fakeCurriculumStore{levels: []models.Level{{ID: 1}}, categories: []models.Category{{ID: 1}}},
	}
	words, err := w.NextWords(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(words) != 1 || words[0].ID != "w1" {
		t.Fatalf("expected plain-order fallback for an unrecognized pointer, got %v", words)
	}
}

func TestLevelWalker_PropagatesUserLookupError(t *testing.T) {
	w := &levelWalker{
		progress:   &fakeProgressStore{},
		users:      &fakeUserStore{err: errors.New("boom")},
		curriculum: &fakeCurriculumStore{levels: []models.Level{{ID: 1}}},
	}
	if _, err := w.NextWords(context.Background(), "u1", 5); err == nil {
		t.Fatalf("expected error to propagate")
	}
}

func TestRankOf(t *testing.T) {
	levels := []models.Level{{ID: 1}, {ID: 2}}
	categories := []models.Category{{ID: 10}, {ID: 20}}

	levelRank, catRank, ok := RankOf(levels, categories, word("w1", 2, 20))
	if !ok || levelRank != 1 || catRank != 1 {
		t.Fatalf("RankOf = (%d, %d, %v), want (1, 1, true)", levelRank, catRank, ok)
	}

	_, _, ok = RankOf(levels, categories, models.Word{ID: "no-grid"})
	if ok {
		t.Fatalf("expected ok=false for a word with no grid metadata")
	}

	stray := int64(999)
	_, _, ok = RankOf(levels, categories, models.Word{ID: "stray", LevelID: &stray, CategoryID: &stray})
	if ok {
		t.Fatalf("expected ok=false for a word whose level/category isn't in the grid")
	}
}
