package textanalyzer

import (
	"reflect"
	"testing"
)

func TestTokenizeLowercasesAndSplits(t *testing.T) {
	got := Tokenize("The Cell-Membrane controls Transport!")
	want := []string{"the", "cell", "membrane", "controls", "transport"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

func TestTermsDropsStopWordsAndShortTokens(t *testing.T) {
	got := Terms("the cell is a unit of life")
	// "the", "is", "a", "of" are stop words; "unit", "cell", "life" survive.
	want := []string{"cell", "unit", "life"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Terms = %v, want %v", got, want)
	}
}

func TestTermFrequencies(t *testing.T) {
	freq := TermFrequencies("membrane protein membrane")
	if freq["membrane"] != 2 {
		t.Errorf("membrane count = %d, want 2", freq["membrane"])
	}
	if freq["protein"] != 1 {
		t.Errorf("protein count = %d, want 1", freq["protein"])
	}
}
