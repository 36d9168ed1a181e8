package candidate

import "testing"

func TestGazetteerMatch_GreedyLongestNonOverlapping(t *testing.T) {
	doc := document(sentence("machine learning model", "NN NN NN"))
	gaz := NewGazetteer("machine learning", "learning")

	store := Apply(NewStore(), GazetteerMatch(doc, gaz))

	if !store.Has("machine learning") {
		t.Fatal("expected \"machine learning\" to be added")
	}
	if store.Has("learning") {
		t.Error("expected overlapping \"learning\" not to be added")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 candidate, got %v", store.Keys())
	}

	c, _ := store.Get("machine learning")
	if c.Offsets[0] != 0 || len(c.POSPatterns[0]) != 2 {
		t.Errorf("unexpected occurrence %+v", c)
	}
}

func TestGazetteerMatch_SkipsTrackedKeys(t *testing.T) {
	doc := document(
		sentence("intro", "NN"),
		sentence("machine learning model", "NN NN NN"),
	)
	base := NewStore()
	base.Add([]string{"machine", "learning"}, []string{"machine", "learning"}, []string{"NN", "NN"}, 1)

	store := Apply(base, GazetteerMatch(doc, NewGazetteer("machine learning", "learning")))

	c, _ := store.Get("machine learning")
	if c.Frequency() != 1 {
		t.Errorf("expected tracked candidate to be left alone, got %d occurrences", c.Frequency())
	}
	l, ok := store.Get("learning")
	if !ok {
		t.Fatal("expected \"learning\" to be added once the longer span is skipped")
	}
	if l.Offsets[0] != 2 {
		t.Errorf("expected offset 2, got %d", l.Offsets[0])
	}
	if base.Has("learning") {
		t.Error("expected input store to be left untouched")
	}
}

func TestGazetteerMatch_ShortSentenceAndEmptyGazetteer(t *testing.T) {
	doc := document(sentence("svm", "NN"), sentence("", ""))

	if got := Apply(NewStore(), GazetteerMatch(doc, nil)); got.Len() != 0 {
		t.Errorf("expected no candidates, got %v", got.Keys())
	}
	if got := Apply(NewStore(), GazetteerMatch(doc, NewGazetteer("svm"))); !got.Has("svm") {
		t.Error("expected single-token sentence to match")
	}
}
