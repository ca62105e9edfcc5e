package normalizers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple", input: "Brand New Co", expected: "brand-new-co"},
		{name: "diacritics", input: "Café Crème Ltd.", expected: "cafe-creme-ltd"},
		{name: "punctuation runs collapse", input: "Acme -- Cleaning & Sons!!", expected: "acme-cleaning-sons"},
		{name: "leading and trailing separators trimmed", input: "  ***Zoë's Bakery***  ", expected: "zoe-s-bakery"},
		{name: "digits kept", input: "24/7 Plumbing", expected: "24-7-plumbing"},
		{name: "non latin removed", input: "東京 Sushi", expected: "sushi"},
		{name: "empty", input: "", expected: ""},
		{name: "only separators", input: " - ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slug(tt.input))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "acme cleaning", Fold("  ACME Cleaning "))
	assert.Equal(t, "", Fold(" \t"))
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "Elodie Francois", StripDiacritics("Élodie François"))
}

func TestSlug_Concurrent(t *testing.T) {
	names := []string{"Café Crème Ltd.", "Élodie François", "Zoë's Bakery", "Señor Ñandú"}
	want := []string{"cafe-creme-ltd", "elodie-francois", "zoe-s-bakery", "senor-nandu"}

	var wg sync.WaitGroup
	errs := make(chan string, 8*len(names)*50)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				for i, name := range names {
					if got := Slug(name); got != want[i] {
						errs <- got
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for got := range errs {
		t.Errorf("unexpected slug %q", got)
	}
}
