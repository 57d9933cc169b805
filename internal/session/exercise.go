// Package session implements the Learn, Practice, Review, and Home
// contracts: it combines the catalog with internal/spacedrep to build and
// submit sessions, the way the teacher's internal/testing module combined
// the catalog with its topic filters to build a quiz.
package session

import (
	"math/rand"

	"github.com/example/wordpool/pkg/models"
)

// OptionsCount is the fixed number of options an options-bearing
// exercise presents (spec.md §6 constants).
const OptionsCount = 4

// Option is one answer choice. It never reveals the headword — only the
// option word's translation and image, per spec.md §4.2.
type Option struct {
	WordID      string `json:"word_id"`
	Translation string `json:"translation"`
	ImageURL    string `json:"image_url"`
}

// Exercise is a single built question, shaped for either an options
// exercise (reading/listening) or a speaking prompt, which carries no
// options: correctness there is asserted by the client.
type Exercise struct {
	WordID       string   `json:"word_id"`
	Word         string   `json:"word"`
	Translation  string   `json:"translation"`
	Sentence     string   `json:"sentence,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	AudioURL     string   `json:"audio_url,omitempty"`
	Pool         string   `json:"pool"`
	Type         string   `json:"type"`
	Options      []Option `json:"options,omitempty"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
}

var speakingTypes = map[string]bool{
	"speaking_lv1": true,
	"speaking_lv2": true,
}

// generateOptions samples OptionsCount-1 distractors uniformly without
// replacement from catalogWords (minus the correct word), places the
// correct word among them, and shuffles. sessionWords, when given, are
// tried first as the distractor pool before falling back to the full
// catalog — the same two-tier preference the teacher's quiz generator
// applies by preferring same-topic words before reaching for the rest.
func generateOptions(rnd *rand.Rand, correct models.Word, catalogWords, sessionWords []models.Word) ([]Option, int) {
	candidates := make([]models.Word, 0, len(sessionWords))
	seen := map[string]bool{correct.ID: true}
	for _, w := range sessionWords {
		if !seen[w.ID] {
			candidates = append(candidates, w)
			seen[w.ID] = true
		}
	}
	if len(candidates) < OptionsCount-1 {
		for _, w := range catalogWords {
			if !seen[w.ID] {
				candidates = append(candidates, w)
				seen[w.ID] = true
			}
		}
	}

	rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	numDistractors := OptionsCount - 1
	if len(candidates) < numDistractors {
		numDistractors = len(candidates)
	}
	distractors := candidates[:numDistractors]

	pool := make([]models.Word, 0, len(distractors)+1)
	pool = append(pool, distractors...)
	pool = append(pool, correct)
	rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	correctIndex := 0
	options := make([]Option, len(pool))
	for i, w := range pool {
		options[i] = Option{WordID: w.ID, Translation: w.Translation, ImageURL: w.ImageURL}
		if w.ID == correct.ID {
			correctIndex = i
		}
	}
	return options, correctIndex
}

// buildExercise constructs the exercise a word surfaces given its pool,
// the exercise type table in internal/spacedrep, and the shared
// distractor discipline above.
func buildExercise(rnd *rand.Rand, word models.Word, pool, exerciseType string, catalogWords, sessionWords []models.Word) Exercise {
	ex := Exercise{
		WordID:      word.ID,
		Word:        word.Word,
		Translation: word.Translation,
		Sentence:    word.Sentence,
		ImageURL:    word.ImageURL,
		AudioURL:    word.AudioURL,
		Pool:        pool,
		Type:        exerciseType,
	}

	if speakingTypes[exerciseType] {
		return ex
	}

	options, correctIndex := generateOptions(rnd, word, catalogWords, sessionWords)
	ex.Options = options
	ex.CorrectIndex = &correctIndex
	return ex
}

// exerciseOrder returns the unique exercise types present, in the order
// they first appear, for the exercise_order field spec.md §6 names.
func exerciseOrder(exercises []Exercise) []string {
	seen := make(map[string]bool)
	var order []string
	for _, ex := range exercises {
		if !seen[ex.Type] {
			seen[ex.Type] = true
			order = append(order, ex.Type)
		}
	}
	return order
}
