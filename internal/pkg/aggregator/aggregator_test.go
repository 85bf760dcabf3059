package aggregator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord(t *testing.T) {
	counts := New()
	counts.Record("Ant", "Aardvark", "Bee")
	counts.Record("Bat")

	assert.Equal(t, LetterCount{"A": 2, "B": 2}, counts)
}

func TestLetterNormalisation(t *testing.T) {
	tests := []struct {
		title string
		want  string
		ok    bool
	}{
		{"  zebra ", "Z", true},
		{"ёж", "Ё", true},
		{"Аист", "А", true},
		{"\tкит\n", "К", true},
		{"1-я особь", "1", true},
		{"straße", "S", true},
		{"ßeta", "SS", true},
		// decomposed й (и + combining breve) composes before the first rune is taken
		{"\u0438\u0306од", "Й", true},
		{"\xff\xfeabc", "\ufffd", true},
		{"\xc3", "\ufffd", true},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			got, ok := Letter(tc.title)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRecordSkipsBlankTitles(t *testing.T) {
	counts := New()
	counts.Record("", "  ", "owl")

	assert.Equal(t, LetterCount{"O": 1}, counts)
}

func TestRecordIsNotIdempotent(t *testing.T) {
	counts := New()
	page := []string{"Ant", "Bee"}
	counts.Record(page...)
	counts.Record(page...)

	assert.Equal(t, LetterCount{"A": 2, "B": 2}, counts)
}

func TestTotalEqualsNonEmptyTitles(t *testing.T) {
	alphabet := []rune("абвгдеёжзийклмнопрстуфхцчшщэюяabcxyz")
	for round := 0; round < 20; round++ {
		var titles []string
		nonEmpty := 0
		n := rand.Intn(200)
		for i := 0; i < n; i++ {
			if rand.Intn(10) == 0 {
				titles = append(titles, "  ")
				continue
			}
			titles = append(titles, string(alphabet[rand.Intn(len(alphabet))])+"tail")
			nonEmpty++
		}

		counts := New()
		counts.Record(titles...)
		assert.Equal(t, nonEmpty, counts.Total())
	}
}

func TestRecordIsOrderAndSplitIndependent(t *testing.T) {
	titles := []string{"Ant", "bee", "Bat", "cow", "Ant", "ёж", "Ящерица", "  zebra "}

	all := New()
	all.Record(titles...)

	for round := 0; round < 20; round++ {
		shuffled := append([]string(nil), titles...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		split := New()
		cut := rand.Intn(len(shuffled) + 1)
		split.Record(shuffled[cut:]...)
		split.Record(shuffled[:cut]...)

		assert.Equal(t, all, split)
	}
}

func TestKeysSorted(t *testing.T) {
	counts := LetterCount{"Я": 1, "B": 2, "А": 3, "A": 4, "Ё": 5}

	assert.Equal(t, []string{"A", "B", "Ё", "А", "Я"}, counts.Keys())
}

func TestMergeAndClone(t *testing.T) {
	a := LetterCount{"A": 1}
	b := LetterCount{"A": 2, "B": 1}

	clone := a.Clone()
	a.Merge(b)

	assert.Equal(t, LetterCount{"A": 3, "B": 1}, a)
	assert.Equal(t, LetterCount{"A": 1}, clone)
}
