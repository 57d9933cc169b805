package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/wordpool/internal/corerr"
	"github.com/example/wordpool/pkg/models"
)

// WordRepository handles database operations for the word catalog.
type WordRepository struct{}

// NewWordRepository creates a new repository instance.
func NewWordRepository() *WordRepository {
	return &WordRepository{}
}

// GetAll returns the full catalog, ordered by level/category so curriculum
// traversal can rely on a stable grid order.
func (r *WordRepository) GetAll() ([]models.Word, error) {
	var words []models.Word
	query := `
		SELECT w.* FROM words w
		LEFT JOIN levels l ON w.level_id = l.id
		LEFT JOIN categories c ON w.category_id = c.id
		ORDER BY COALESCE(l.order_index, 0), COALESCE(c.order_index, 0), w.word
	`
	if err := DB.Select(&words, query); err != nil {
		return nil, fmt.Errorf("failed to get words: %v", err)
	}
	return words, nil
}

// GetByID returns a word by ID.
func (r *WordRepository) GetByID(id string) (*models.Word, error) {
	var word models.Word
	err := DB.Get(&word, rebind("SELECT * FROM words WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, corerr.ErrUnknownWord
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %v", err)
	}
	return &word, nil
}

// GetByIDs returns the words matching the given IDs, in no particular
// order. Used to hydrate a progress batch and to build a distractor pool
// for a single exercise.
func (r *WordRepository) GetByIDs(ids []string) ([]models.Word, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlxIn("SELECT * FROM words WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build word lookup query: %v", err)
	}
	var words []models.Word
	if err := DB.Select(&words, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get words by id: %v", err)
	}
	return words, nil
}

// GetByLevelAndCategory returns the words in one grid cell, in catalog
// order, for curriculum walking.
func (r *WordRepository) GetByLevelAndCategory(levelID, categoryID int64) ([]models.Word, error) {
	var words []models.Word
	query := rebind("SELECT * FROM words WHERE level_id = ? AND category_id = ? ORDER BY word")
	if err := DB.Select(&words, query, levelID, categoryID); err != nil {
		return nil, fmt.Errorf("failed to get words by level/category: %v", err)
	}
	return words, nil
}

// Create inserts a new word. Word IDs are assigned by the caller (the
// catalog importer mints a UUID per row).
func (r *WordRepository) Create(word *models.Word) error {
	query := rebind(`
		INSERT INTO words (id, word, translation, sentence, sentence_zh, image_url, audio_url, level_id, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := DB.Exec(
		query,
		word.ID,
		word.Word,
		word.Translation,
		word.Sentence,
		word.SentenceZH,
		word.ImageURL,
		word.AudioURL,
		word.LevelID,
		word.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("failed to create word: %v", err)
	}
	return nil
}

// Update modifies an existing word's catalog fields.
func (r *WordRepository) Update(word *models.Word) error {
	query := rebind(`
		UPDATE words SET
			word = ?,
			translation = ?,
			sentence = ?,
			sentence_zh = ?,
			image_url = ?,
			audio_url = ?,
			level_id = ?,
			category_id = ?
		WHERE id = ?
	`)
	_, err := DB.Exec(
		query,
		word.Word,
		word.Translation,
		word.Sentence,
		word.SentenceZH,
		word.ImageURL,
		word.AudioURL,
		word.LevelID,
		word.CategoryID,
		word.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update word: %v", err)
	}
	return nil
}

// GetByText returns a word by its exact surface form, used by the
// importer to decide insert vs. update.
func (r *WordRepository) GetByText(word string) (*models.Word, error) {
	var w models.Word
	err := DB.Get(&w, rebind("SELECT * FROM words WHERE word = ?"), word)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Delete removes a word.
func (r *WordRepository) Delete(id string) error {
	_, err := DB.Exec(rebind("DELETE FROM words WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete word: %v", err)
	}
	return nil
}

// Count returns the total catalog size.
func (r *WordRepository) Count() (int, error) {
	var n int
	if err := DB.Get(&n, "SELECT COUNT(*) FROM words"); err != nil {
		return 0, fmt.Errorf("failed to count words: %v", err)
	}
	return n, nil
}
