package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

var testLog = logs.GetLoggerFromLevel(slog.LevelDebug)

func newModerator(t *testing.T, words ...string) *Moderator {
	t.Helper()
	mod, err := NewModerator(words, '#', testLog)
	require.NoError(t, err)
	return mod
}

func TestModerator_ChatBodies(t *testing.T) {
	mod := newModerator(t, "spam", "troll")

	tests := []struct {
		name     string
		body     string
		censored string
		found    []string
	}{
		{"Single word", "buy spam now", "buy #### now", []string{"spam"}},
		{"Found words follow the text order", "troll says spam", "##### says ####", []string{"troll", "spam"}},
		{"Repeated word is reported each time", "spam, spam", "####, ####", []string{"spam", "spam"}},
		{"Leet and case are normalised", "SP4M and Tr0ll", "#### and #####", []string{"spam", "troll"}},
		{"Separators inside a word", "s.p.a.m", "#######", []string{"spam"}},
		{"Group message body with mentions", "@bob no spam here", "@bob no #### here", []string{"spam"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			censored, found := mod.Censor(tt.body)
			req.Equal(tt.censored, censored)
			req.Equal(tt.found, found)
		})
	}
}

func TestModerator_CleanTextIsUntouched(t *testing.T) {
	req := require.New(t)
	mod := newModerator(t, "spam")

	for _, body := range []string{"hello everyone", "", "   ", "..."} {
		// When nothing matches
		censored, found := mod.Censor(body)

		// Then the body is returned as is and found is nil
		req.Equal(body, censored)
		req.Nil(found)
	}
}

func TestModerator_SkipsBlankWords(t *testing.T) {
	req := require.New(t)

	// Given a word list with blank and punctuation-only entries
	mod := newModerator(t, "", "   ", "\t", "!?", "spam")

	// Then only the real word is censored and spaces never match
	censored, found := mod.Censor("no spam in this line")
	req.Equal("no #### in this line", censored)
	req.Equal([]string{"spam"}, found)
}

func TestModerator_OnlyBlankWords(t *testing.T) {
	req := require.New(t)

	// Given nothing usable to match
	mod := newModerator(t, " ", "")

	// Then every body passes through
	censored, found := mod.Censor("anything at all")
	req.Equal("anything at all", censored)
	req.Nil(found)
}
