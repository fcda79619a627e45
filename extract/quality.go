package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/adamsih300u/bastion/core"
)

// scoreChunk assigns a quality score in [0,1] to a chunk of text.
// The score rewards chunks that are close to the target size and made
// of mostly alphabetic prose; control-character soup, tables of
// numbers and tiny fragments score low.
func scoreChunk(text string, targetTokens int) float64 {
	if text == "" {
		return 0
	}

	// Size component: full marks at or above the target, proportional below.
	sizeScore := float64(approxTokens(text)) / float64(targetTokens)
	if sizeScore > 1 {
		sizeScore = 1
	}

	// Prose component: fraction of letters and spaces.
	var letters, total int
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			letters++
		}
	}
	proseScore := float64(letters) / float64(total)

	score := 0.4*sizeScore + 0.6*proseScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// entityPattern matches capitalized word sequences of up to four words,
// the cheap stand-in for proper nouns until the knowledge-graph
// collaborator does real NER downstream.
var entityPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+){0,3}\b`)

// detectEntities extracts candidate named entities from chunks.
// Confidence grows with the number of chunks an entity appears in.
func detectEntities(chunks []*core.Chunk) []*core.Entity {
	type seen struct {
		count   int
		firstID core.ID
	}
	found := make(map[string]*seen)
	var order []string

	for _, chunk := range chunks {
		matched := make(map[string]bool)
		for _, name := range entityPattern.FindAllString(chunk.Content, -1) {
			// Sentence-initial single words are too noisy to keep.
			if !strings.Contains(name, " ") && strings.HasPrefix(chunk.Content, name) {
				continue
			}
			if matched[name] {
				continue
			}
			matched[name] = true

			if s, ok := found[name]; ok {
				s.count++
			} else {
				found[name] = &seen{count: 1, firstID: chunk.ID}
				order = append(order, name)
			}
		}
	}

	entities := make([]*core.Entity, 0, len(order))
	for _, name := range order {
		s := found[name]
		confidence := 0.5 + 0.1*float64(s.count)
		if confidence > 0.95 {
			confidence = 0.95
		}
		entities = append(entities, &core.Entity{
			Name:          name,
			Type:          "mention",
			Confidence:    confidence,
			SourceChunkID: s.firstID,
		})
	}
	return entities
}

// aggregateQuality summarizes per-chunk scores into document metrics.
func aggregateQuality(chunks []*core.Chunk, entities []*core.Entity, totalChars int) core.QualityMetrics {
	m := core.QualityMetrics{
		ChunkCount:  len(chunks),
		EntityCount: len(entities),
		TotalChars:  totalChars,
	}
	if len(chunks) == 0 {
		return m
	}

	m.MinScore = chunks[0].QualityScore
	m.MaxScore = chunks[0].QualityScore
	var sum float64
	for _, chunk := range chunks {
		sum += chunk.QualityScore
		if chunk.QualityScore < m.MinScore {
			m.MinScore = chunk.QualityScore
		}
		if chunk.QualityScore > m.MaxScore {
			m.MaxScore = chunk.QualityScore
		}
	}
	m.MeanScore = sum / float64(len(chunks))
	return m
}
