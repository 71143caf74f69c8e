package knowledge

import (
	"fmt"
	"sort"
	"strings"
)

// Mention is a symptom found in normalized text. Start and End are byte
// offsets into the normalized text.
type Mention struct {
	Symptom SymptomDefinition
	Alias   string
	Start   int
	End     int
}

type aliasEntry struct {
	phrase  string
	symptom int
}

// Lexicon resolves free-text fragments to symptom definitions. Aliases are
// matched longest first so "chest pain" is never shadowed by "pain".
type Lexicon struct {
	defs    []SymptomDefinition
	byName  map[string]int
	byAlias map[string]int
	aliases []aliasEntry
}

// NewLexicon indexes defs. Names and aliases are normalized; an alias claimed
// by two different symptoms is rejected.
func NewLexicon(defs []SymptomDefinition) (*Lexicon, error) {
	lex := &Lexicon{
		defs:    make([]SymptomDefinition, 0, len(defs)),
		byName:  make(map[string]int, len(defs)),
		byAlias: make(map[string]int),
	}

	var problems []string
	for _, def := range defs {
		def.Name = strings.ToLower(strings.TrimSpace(def.Name))
		if def.Name == "" {
			problems = append(problems, "symptom with empty name")
			continue
		}
		if _, dup := lex.byName[def.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate symptom %q", def.Name))
			continue
		}
		if def.DefaultWeight <= 0 {
			def.DefaultWeight = 1
		}

		idx := len(lex.defs)
		lex.byName[def.Name] = idx

		phrases := append([]string{def.Label()}, def.Aliases...)
		aliases := make([]string, 0, len(phrases))
		for _, phrase := range phrases {
			norm := Normalize(phrase)
			if norm == "" {
				continue
			}
			if owner, taken := lex.byAlias[norm]; taken {
				if owner != idx {
					problems = append(problems, fmt.Sprintf("alias %q claimed by %q and %q", norm, lex.defs[owner].Name, def.Name))
				}
				continue
			}
			lex.byAlias[norm] = idx
			lex.aliases = append(lex.aliases, aliasEntry{phrase: norm, symptom: idx})
			aliases = append(aliases, norm)
		}
		def.Aliases = aliases
		lex.defs = append(lex.defs, def)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	sort.SliceStable(lex.aliases, func(i, j int) bool {
		return len(lex.aliases[i].phrase) > len(lex.aliases[j].phrase)
	})
	return lex, nil
}

// Definitions returns every symptom in declaration order.
func (l *Lexicon) Definitions() []SymptomDefinition {
	out := make([]SymptomDefinition, len(l.defs))
	copy(out, l.defs)
	return out
}

// Definition returns the symptom with the given canonical name.
func (l *Lexicon) Definition(name string) (SymptomDefinition, bool) {
	idx, ok := l.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return SymptomDefinition{}, false
	}
	return l.defs[idx], true
}

// Has reports whether name is a known canonical symptom.
func (l *Lexicon) Has(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// Len returns the number of symptom definitions.
func (l *Lexicon) Len() int {
	return len(l.defs)
}

// Lookup resolves a text fragment to a symptom. An exact canonical name or
// alias wins; otherwise the longest alias contained in the fragment is used.
func (l *Lexicon) Lookup(fragment string) (SymptomDefinition, bool) {
	norm := Normalize(fragment)
	if norm == "" {
		return SymptomDefinition{}, false
	}
	if idx, ok := l.byName[strings.ReplaceAll(norm, " ", "_")]; ok {
		return l.defs[idx], true
	}
	if idx, ok := l.byAlias[norm]; ok {
		return l.defs[idx], true
	}
	for _, a := range l.aliases {
		if IndexWord(norm, a.phrase, 0) >= 0 {
			return l.defs[a.symptom], true
		}
	}
	return SymptomDefinition{}, false
}

// Find returns every non-overlapping symptom mention in normalized text,
// ordered by position. Longer aliases claim their span first.
func (l *Lexicon) Find(normalized string) []Mention {
	if normalized == "" {
		return nil
	}
	claimed := make([]bool, len(normalized))
	var mentions []Mention

	for _, a := range l.aliases {
		for from := 0; ; {
			start := IndexWord(normalized, a.phrase, from)
			if start < 0 {
				break
			}
			end := start + len(a.phrase)
			from = end
			if spanClaimed(claimed, start, end) {
				continue
			}
			for i := start; i < end; i++ {
				claimed[i] = true
			}
			mentions = append(mentions, Mention{
				Symptom: l.defs[a.symptom],
				Alias:   a.phrase,
				Start:   start,
				End:     end,
			})
		}
	}

	sort.Slice(mentions, func(i, j int) bool { return mentions[i].Start < mentions[j].Start })
	return mentions
}

func spanClaimed(claimed []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}
