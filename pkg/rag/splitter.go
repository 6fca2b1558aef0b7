package rag

import (
	"strings"
	"unicode/utf8"
)

// Splitter breaks a text into chunks small enough to digest as
// separate documents.
type Splitter interface {
	SplitText(text string) []string
}

// RecursiveCharacterSplitter splits text recursively using an ordered
// list of separators. It tries to keep related text together:
// paragraphs first, then lines, then words.
type RecursiveCharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewRecursiveSplitter returns a splitter with default separators
// suited for generic prose.
func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveCharacterSplitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &RecursiveCharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   []string{"\n\n", "\n", " ", ""},
	}
}

// NewMarkdownSplitter returns a splitter that prefers cutting at
// markdown headers before falling back to paragraphs.
func NewMarkdownSplitter(chunkSize, chunkOverlap int) *RecursiveCharacterSplitter {
	s := NewRecursiveSplitter(chunkSize, chunkOverlap)
	s.Separators = []string{"\n## ", "\n### ", "\n\n", "\n", " ", ""}
	return s
}

func (s *RecursiveCharacterSplitter) SplitText(text string) []string {
	return s.recursiveSplit(text, s.Separators)
}

// recursiveSplit tries to split by the first separator. Parts that are
// still too big get split again with the remaining separators, then
// everything is merged back toward ChunkSize.
func (s *RecursiveCharacterSplitter) recursiveSplit(text string, separators []string) []string {
	if len(separators) == 0 {
		return []string{text}
	}

	separator := separators[0]
	nextSeparators := separators[1:]

	parts := strings.Split(text, separator)
	// strings.Split returns one part when the separator is absent
	if len(parts) == 1 && separator != "" {
		return s.recursiveSplit(text, nextSeparators)
	}

	var goodSplits []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) < s.ChunkSize || len(nextSeparators) == 0 {
			goodSplits = append(goodSplits, part)
		} else {
			goodSplits = append(goodSplits, s.recursiveSplit(part, nextSeparators)...)
		}
	}

	return s.mergeSplits(goodSplits, separator)
}

// mergeSplits joins small pieces with the separator until a chunk
// approaches ChunkSize without exceeding it.
func (s *RecursiveCharacterSplitter) mergeSplits(splits []string, separator string) []string {
	var merged []string
	var current []string
	currentLen := 0
	sepLen := utf8.RuneCountInString(separator)

	for _, split := range splits {
		splitLen := utf8.RuneCountInString(split)

		if currentLen+splitLen+(len(current)*sepLen) > s.ChunkSize && len(current) > 0 {
			merged = append(merged, strings.Join(current, separator))

			if s.ChunkOverlap > 0 {
				// keep the tail of the previous chunk as overlap
				current = s.trimToOverlap(current, separator, s.ChunkOverlap)
				currentLen = 0
				for _, p := range current {
					currentLen += utf8.RuneCountInString(p)
				}
				if len(current) > 1 {
					currentLen += (len(current) - 1) * sepLen
				}
			} else {
				current = nil
				currentLen = 0
			}
		}

		current = append(current, split)
		currentLen += splitLen
	}

	if len(current) > 0 {
		merged = append(merged, strings.Join(current, separator))
	}

	return merged
}

// trimToOverlap drops pieces from the head until the remainder fits
// in overlapSize. Greedy, best effort.
func (s *RecursiveCharacterSplitter) trimToOverlap(parts []string, separator string, overlapSize int) []string {
	sepLen := utf8.RuneCountInString(separator)
	totalLen := 0
	for _, p := range parts {
		totalLen += utf8.RuneCountInString(p)
	}
	if len(parts) > 1 {
		totalLen += (len(parts) - 1) * sepLen
	}

	for len(parts) > 0 && totalLen > overlapSize {
		totalLen -= utf8.RuneCountInString(parts[0])
		parts = parts[1:]
		if len(parts) > 0 {
			totalLen -= sepLen
		}
	}
	return parts
}
