package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	result := Parse("")
	assert.Equal(t, "", result.Command)
	assert.Nil(t, result.Args)

	assert.Equal(t, ParseResult{}, Parse("   \t "))
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("attack")
	assert.Equal(t, "attack", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_Lowercase(t *testing.T) {
	assert.Equal(t, "heal", Parse("HEAL").Command)
}

func TestParse_ArgumentCasePreserved(t *testing.T) {
	result := Parse("  Use   iceCharm  ")
	assert.Equal(t, "use", result.Command)
	assert.Equal(t, []string{"iceCharm"}, result.Args)
}

func TestPropertyParseAlwaysLowercasesCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[A-Za-z]{1,20}`).Draw(t, "word")
		result := Parse(word)
		if result.Command != strings.ToLower(word) {
			t.Fatalf("Parse(%q).Command = %q", word, result.Command)
		}
	})
}

func TestPropertyParseKeepsEveryArgument(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z0-9_-]{1,10}`), 1, 6).Draw(t, "words")
		result := Parse(strings.Join(words, "  "))
		if len(result.Args) != len(words)-1 {
			t.Fatalf("got %d args for %v", len(result.Args), words)
		}
		for i, a := range result.Args {
			if a != words[i+1] {
				t.Fatalf("arg %d = %q, want %q", i, a, words[i+1])
			}
		}
	})
}
