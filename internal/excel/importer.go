// Package excel imports the word catalog from an Excel workbook or CSV
// file, the teacher's dual-path bulk-load adapted to the new schema:
// sentence/sentence_zh/image_url/audio_url plus an optional level and
// category label that get upserted into the curriculum grid on first
// sight.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/wordpool/internal/ai"
	"github.com/example/wordpool/internal/database"
	"github.com/example/wordpool/pkg/models"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration.
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	WordColumn        string
	TranslationColumn string
	SentenceColumn    string
	SentenceZHColumn  string
	ImageURLColumn    string
	AudioURLColumn    string
	LevelColumn       string
	CategoryColumn    string
	SheetName         string
	SkipHeader        bool
	StartRow          int // The row to start importing from (1-based index)
	EnrichSentences   bool
}

// DefaultImportConfig returns the default import configuration.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:        "A",
		TranslationColumn: "B",
		SentenceColumn:    "C",
		SentenceZHColumn:  "D",
		ImageURLColumn:    "E",
		AudioURLColumn:    "F",
		LevelColumn:       "G",
		CategoryColumn:    "H",
		SheetName:         "Sheet1",
		SkipHeader:        true,
		StartRow:          2,
		EnrichSentences:   os.Getenv("OPENAI_API_KEY") != "",
	}
}

// ImportResult holds the result of an import operation.
type ImportResult struct {
	TotalProcessed    int
	LevelsCreated     int
	CategoriesCreated int
	Created           int
	Updated           int
	Errors            []string
}

// importer holds the shared state a catalog load needs: the
// repositories it writes through, the curriculum labels it's already
// upserted this run, and the optional enrichment client.
type importer struct {
	words      *database.WordRepository
	curriculum *database.CurriculumRepository
	chatGPT    *ai.ChatGPT
	enrich     bool
	levelIDs   map[string]int64
	levelOrder int
	catIDs     map[string]int64
	catOrder   int
	result     *ImportResult
}

// ImportWords imports words from an Excel or CSV file.
func ImportWords(config ImportConfig) (*ImportResult, error) {
	imp := &importer{
		words:      database.NewWordRepository(),
		curriculum: database.NewCurriculumRepository(),
		enrich:     config.EnrichSentences,
		levelIDs:   make(map[string]int64),
		catIDs:     make(map[string]int64),
		result:     &ImportResult{Errors: make([]string, 0)},
	}

	existingLevels, err := imp.curriculum.GetLevels()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing levels: %w", err)
	}
	for _, l := range existingLevels {
		imp.levelIDs[strings.ToLower(l.Label)] = l.ID
		if l.Order >= imp.levelOrder {
			imp.levelOrder = l.Order + 1
		}
	}
	existingCats, err := imp.curriculum.GetCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing categories: %w", err)
	}
	for _, c := range existingCats {
		imp.catIDs[strings.ToLower(c.Label)] = c.ID
		if c.Order >= imp.catOrder {
			imp.catOrder = c.Order + 1
		}
	}

	if imp.enrich {
		if chatGPT, err := ai.New(); err == nil {
			imp.chatGPT = chatGPT
		}
	}

	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return imp.importFromCSV(config)
	}
	return imp.importFromExcel(config)
}

func (imp *importer) importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		imp.result.TotalProcessed++
		if err := imp.processRow(row, config, i+1); err != nil {
			imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return imp.result, nil
}

func (imp *importer) importFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}

		imp.result.TotalProcessed++
		if err := imp.processRow(row, config, rowNum); err != nil {
			imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return imp.result, nil
}

// processRow reads one row's columns and upserts the catalog entry.
func (imp *importer) processRow(row []string, config ImportConfig, rowNum int) error {
	cell := func(col string) string {
		if col == "" {
			return ""
		}
		if idx := columnToIndex(col); idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	word := cleanWord(cell(config.WordColumn))
	translation := cell(config.TranslationColumn)
	sentence := cell(config.SentenceColumn)
	sentenceZH := cell(config.SentenceZHColumn)
	imageURL := cell(config.ImageURLColumn)
	audioURL := cell(config.AudioURLColumn)
	levelLabel := cell(config.LevelColumn)
	categoryLabel := cell(config.CategoryColumn)

	if word == "" {
		return fmt.Errorf("word cannot be empty")
	}
	if translation == "" {
		return fmt.Errorf("translation cannot be empty")
	}

	if sentence == "" && imp.chatGPT != nil {
		prompt := fmt.Sprintf(
			"Generate one short, natural example sentence in English using the word '%s' (translates to '%s'). Return only the sentence.",
			word, translation,
		)
		if generated, err := imp.chatGPT.Complete(context.Background(), prompt); err == nil {
			sentence = generated
		}
	}

	var levelID, categoryID *int64
	if levelLabel != "" {
		id, err := imp.levelIDFor(levelLabel)
		if err != nil {
			return fmt.Errorf("failed to resolve level: %w", err)
		}
		levelID = &id
	}
	if categoryLabel != "" {
		id, err := imp.categoryIDFor(categoryLabel)
		if err != nil {
			return fmt.Errorf("failed to resolve category: %w", err)
		}
		categoryID = &id
	}

	existing, err := imp.words.GetByText(word)
	if err == nil && existing != nil {
		existing.Translation = translation
		existing.Sentence = sentence
		existing.SentenceZH = sentenceZH
		existing.ImageURL = imageURL
		existing.AudioURL = audioURL
		existing.LevelID = levelID
		existing.CategoryID = categoryID
		if err := imp.words.Update(existing); err != nil {
			return fmt.Errorf("failed to update word: %w", err)
		}
		imp.result.Updated++
		return nil
	}

	newWord := &models.Word{
		ID:          uuid.NewString(),
		Word:        word,
		Translation: translation,
		Sentence:    sentence,
		SentenceZH:  sentenceZH,
		ImageURL:    imageURL,
		AudioURL:    audioURL,
		LevelID:     levelID,
		CategoryID:  categoryID,
	}
	if err := imp.words.Create(newWord); err != nil {
		return fmt.Errorf("failed to create word: %w", err)
	}
	imp.result.Created++
	return nil
}

func (imp *importer) levelIDFor(label string) (int64, error) {
	key := strings.ToLower(label)
	if id, ok := imp.levelIDs[key]; ok {
		return id, nil
	}
	level, err := imp.curriculum.CreateLevel(label, imp.levelOrder)
	if err != nil {
		return 0, err
	}
	imp.levelOrder++
	imp.levelIDs[key] = level.ID
	imp.result.LevelsCreated++
	return level.ID, nil
}

func (imp *importer) categoryIDFor(label string) (int64, error) {
	key := strings.ToLower(label)
	if id, ok := imp.catIDs[key]; ok {
		return id, nil
	}
	category, err := imp.curriculum.CreateCategory(label, imp.catOrder)
	if err != nil {
		return 0, err
	}
	imp.catOrder++
	imp.catIDs[key] = category.ID
	imp.result.CategoriesCreated++
	return category.ID, nil
}

// cleanWord strips parenthetical notes like "(went, gone)" from a word
// field.
func cleanWord(word string) string {
	if idx := strings.Index(word, "("); idx > 0 {
		return strings.TrimSpace(word[:idx])
	}
	return strings.TrimSpace(word)
}

// columnToIndex converts an Excel column letter ("A", "B", ...) to a
// zero-based index.
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
