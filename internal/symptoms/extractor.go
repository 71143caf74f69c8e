package symptoms

import (
	"strconv"
	"strings"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// History gives the extractor read access to the session it is working for.
type History interface {
	Last() (session.Observation, bool)
}

// Modifiers are severity, duration, location and frequency cues found in one
// utterance.
type Modifiers struct {
	Severity  session.Severity
	Duration  *session.Duration
	Location  string
	Frequency string
}

// Empty reports whether no modifier was captured.
func (m Modifiers) Empty() bool {
	return m.Severity == session.SeverityNone && m.Duration == nil && m.Location == "" && m.Frequency == ""
}

func (m Modifiers) observation(def knowledge.SymptomDefinition) session.Observation {
	return session.Observation{
		Symptom:          def,
		Severity:         m.Severity,
		SeverityExplicit: m.Severity != session.SeverityNone,
		Duration:         m.Duration,
		Location:         m.Location,
		Frequency:        m.Frequency,
	}
}

// Extraction is the structured result of one utterance.
type Extraction struct {
	Observations []session.Observation
	// Pending holds modifiers that found no symptom to attach to.
	Pending Modifiers
	// Resolved names the tracked symptom a modifier-only reply was applied to.
	Resolved string
	RedFlags []string
	Negated  []string
	Mentions int
	Words    int
}

// Extractor turns free text into symptom observations.
type Extractor struct {
	lexicon *knowledge.Lexicon
	rules   *compiled
}

// NewExtractor creates an extractor over lex. A nil rules uses DefaultRules.
func NewExtractor(lex *knowledge.Lexicon, rules *Rules) *Extractor {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Extractor{lexicon: lex, rules: compile(rules)}
}

type cueKind int

const (
	cueSeverity cueKind = iota
	cueDuration
	cueLocation
	cueFrequency
)

type cue struct {
	kind      cueKind
	start     int
	end       int
	severity  session.Severity
	duration  *session.Duration
	text      string
	frequency string
}

// Extract analyzes one utterance. Modifier cues attach to the nearest symptom
// mention, preferring the following one on equal distance. An utterance with
// modifiers but no symptom is applied to the last tracked symptom when it
// refers back to it.
func (e *Extractor) Extract(text string, hist History) Extraction {
	norm := knowledge.Normalize(text)
	out := Extraction{Words: len(strings.Fields(norm))}
	if norm == "" {
		return out
	}

	out.RedFlags = matchAll(norm, e.rules.redFlags)

	mentions := e.lexicon.Find(norm)
	claimed := make(spans, len(norm))
	for _, m := range mentions {
		claimed.claim(m.Start, m.End)
	}
	cues := e.findCues(norm, claimed)
	words := wordIndex(norm)

	mentions, out.Negated = e.dropNegated(norm, mentions, claimed, words)
	out.Mentions = len(mentions)

	if len(mentions) == 0 {
		mods := collapse(cues)
		if mods.Empty() {
			return out
		}
		if hist != nil && e.refersBack(norm, out.Words) {
			if last, ok := hist.Last(); ok {
				out.Observations = []session.Observation{mods.observation(last.Symptom)}
				out.Resolved = last.Name()
				return out
			}
		}
		out.Pending = mods
		return out
	}

	attached := make([]Modifiers, len(mentions))
	best := make([][4]int, len(mentions))
	for i := range best {
		best[i] = [4]int{-1, -1, -1, -1}
	}
	for _, c := range cues {
		mi, dist := nearest(mentions, c, words)
		mods := &attached[mi]
		if c.kind == cueSeverity {
			if c.severity > mods.Severity {
				mods.Severity = c.severity
			}
			continue
		}
		if prev := best[mi][c.kind]; prev >= 0 && prev <= dist {
			continue
		}
		best[mi][c.kind] = dist
		switch c.kind {
		case cueDuration:
			mods.Duration = c.duration
		case cueLocation:
			mods.Location = c.text
		case cueFrequency:
			mods.Frequency = c.frequency
		}
	}

	index := make(map[string]int, len(mentions))
	for i, m := range mentions {
		obs := attached[i].observation(m.Symptom)
		if j, seen := index[m.Symptom.Name]; seen {
			out.Observations[j] = mergeObservation(out.Observations[j], obs)
			continue
		}
		index[m.Symptom.Name] = len(out.Observations)
		out.Observations = append(out.Observations, obs)
	}
	for i := range out.Observations {
		if out.Observations[i].Severity == session.SeverityNone {
			out.Observations[i].Severity = session.SeverityModerate
		}
	}
	return out
}

// findCues evaluates every modifier table. Frequency phrases are claimed
// before durations so "twice a day" is not read as "a day".
func (e *Extractor) findCues(norm string, claimed spans) []cue {
	var cues []cue

	for _, f := range e.rules.frequency {
		for _, sp := range findPhrase(norm, f.text, claimed) {
			cues = append(cues, cue{kind: cueFrequency, start: sp[0], end: sp[1], frequency: f.label})
		}
	}

	for _, rule := range e.rules.duration {
		for _, loc := range rule.Pattern.FindAllStringSubmatchIndex(norm, -1) {
			if claimed.overlaps(loc[0], loc[1]) {
				continue
			}
			d := parseDuration(norm, rule, loc)
			if d == nil {
				continue
			}
			claimed.claim(loc[0], loc[1])
			cues = append(cues, cue{kind: cueDuration, start: loc[0], end: loc[1], duration: d})
		}
	}

	for _, re := range e.rules.scale {
		for _, loc := range re.FindAllStringSubmatchIndex(norm, -1) {
			if claimed.overlaps(loc[2], loc[3]) {
				continue
			}
			n, err := strconv.Atoi(norm[loc[2]:loc[3]])
			if err != nil || n < 1 || n > 10 {
				continue
			}
			claimed.claim(loc[2], loc[3])
			cues = append(cues, cue{kind: cueSeverity, start: loc[2], end: loc[3], severity: ScaleSeverity(n)})
		}
	}

	for _, s := range e.rules.severity {
		for _, sp := range findPhrase(norm, s.text, claimed) {
			cues = append(cues, cue{kind: cueSeverity, start: sp[0], end: sp[1], severity: s.level})
		}
	}

	for _, re := range e.rules.location {
		for _, loc := range re.FindAllStringSubmatchIndex(norm, -1) {
			if claimed.overlaps(loc[0], loc[1]) {
				continue
			}
			claimed.claim(loc[0], loc[1])
			cues = append(cues, cue{kind: cueLocation, start: loc[0], end: loc[1], text: norm[loc[2]:loc[1]]})
		}
	}
	return cues
}

// dropNegated removes mentions preceded by a negation within the window,
// e.g. "no fever".
func (e *Extractor) dropNegated(norm string, mentions []knowledge.Mention, claimed spans, words []int) ([]knowledge.Mention, []string) {
	var negs [][2]int
	for _, n := range e.rules.negations {
		negs = append(negs, findPhrase(norm, n, claimed)...)
	}
	if len(negs) == 0 {
		return mentions, nil
	}

	kept := mentions[:0:0]
	var negated []string
	for _, m := range mentions {
		cancelled := false
		for _, sp := range negs {
			if sp[1] > m.Start {
				continue
			}
			if words[m.Start]-words[sp[1]-1] <= e.rules.negationWindow {
				cancelled = true
				break
			}
		}
		if cancelled {
			negated = append(negated, m.Symptom.Name)
			continue
		}
		kept = append(kept, m)
	}
	return kept, negated
}

func (e *Extractor) refersBack(norm string, words int) bool {
	if words <= e.rules.shortAnswer {
		return true
	}
	for _, ref := range e.rules.backReferences {
		if knowledge.IndexWord(norm, ref, 0) >= 0 {
			return true
		}
	}
	return false
}

// ScaleSeverity maps a 1-10 pain score to a severity level.
func ScaleSeverity(n int) session.Severity {
	switch {
	case n <= 3:
		return session.SeverityMild
	case n <= 7:
		return session.SeverityModerate
	default:
		return session.SeveritySevere
	}
}

var numberWords = map[string]float64{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"a few": 3, "few": 3, "several": 3, "a couple": 2, "a couple of": 2, "couple of": 2,
}

var unitNames = map[string]string{
	"minute": "minutes", "minutes": "minutes", "min": "minutes", "mins": "minutes",
	"hour": "hours", "hours": "hours", "hr": "hours", "hrs": "hours",
	"day": "days", "days": "days",
	"week": "weeks", "weeks": "weeks", "wk": "weeks", "wks": "weeks",
	"month": "months", "months": "months",
	"year": "years", "years": "years", "yr": "years", "yrs": "years",
}

func parseDuration(norm string, rule DurationRule, loc []int) *session.Duration {
	if !rule.Quantity {
		return &session.Duration{Text: norm[loc[0]:loc[1]]}
	}

	// "for the past week" has no quantity group of its own.
	if len(loc) < 6 || loc[4] < 0 {
		unit, ok := unitNames[norm[loc[2]:loc[3]]]
		if !ok {
			return nil
		}
		return &session.Duration{Magnitude: 1, Unit: unit, Text: norm[loc[0]:loc[1]]}
	}

	qty := norm[loc[2]:loc[3]]
	n, ok := numberWords[qty]
	if !ok {
		var err error
		if n, err = strconv.ParseFloat(qty, 64); err != nil {
			return nil
		}
	}
	unit, ok := unitNames[norm[loc[4]:loc[5]]]
	if !ok || n <= 0 {
		return nil
	}
	return &session.Duration{Magnitude: n, Unit: unit, Text: norm[loc[2]:loc[1]]}
}

// collapse folds cues into one modifier set: the highest severity and the
// first duration, location and frequency.
func collapse(cues []cue) Modifiers {
	var m Modifiers
	for _, c := range cues {
		switch c.kind {
		case cueSeverity:
			if c.severity > m.Severity {
				m.Severity = c.severity
			}
		case cueDuration:
			if m.Duration == nil {
				m.Duration = c.duration
			}
		case cueLocation:
			if m.Location == "" {
				m.Location = c.text
			}
		case cueFrequency:
			if m.Frequency == "" {
				m.Frequency = c.frequency
			}
		}
	}
	return m
}

func mergeObservation(a, b session.Observation) session.Observation {
	if b.Severity > a.Severity {
		a.Severity = b.Severity
		a.SeverityExplicit = a.SeverityExplicit || b.SeverityExplicit
	}
	if a.Duration == nil {
		a.Duration = b.Duration
	}
	if a.Location == "" {
		a.Location = b.Location
	}
	if a.Frequency == "" {
		a.Frequency = b.Frequency
	}
	return a
}

// nearest picks the mention a cue attaches to and the word distance to it.
func nearest(mentions []knowledge.Mention, c cue, words []int) (int, int) {
	prev, next := -1, -1
	for i, m := range mentions {
		if m.End <= c.start {
			prev = i
		} else if m.Start >= c.end && next < 0 {
			next = i
		}
	}
	switch {
	case next < 0 && prev < 0:
		return 0, 0
	case next < 0:
		return prev, words[c.start] - words[mentions[prev].End-1]
	case prev < 0:
		return next, words[mentions[next].Start] - words[c.end-1]
	}
	distNext := words[mentions[next].Start] - words[c.end-1]
	distPrev := words[c.start] - words[mentions[prev].End-1]
	if distNext <= distPrev {
		return next, distNext
	}
	return prev, distPrev
}

// wordIndex maps every byte of normalized text to the index of its word.
// Separating spaces map to the preceding word.
func wordIndex(norm string) []int {
	idx := make([]int, len(norm))
	w, inWord := -1, false
	for i := 0; i < len(norm); i++ {
		if norm[i] == ' ' {
			inWord = false
		} else if !inWord {
			w++
			inWord = true
		}
		idx[i] = w
	}
	return idx
}

// spans marks bytes already claimed by a mention or cue.
type spans []bool

func (s spans) claim(start, end int) {
	for i := start; i < end; i++ {
		s[i] = true
	}
}

func (s spans) overlaps(start, end int) bool {
	for i := start; i < end; i++ {
		if s[i] {
			return true
		}
	}
	return false
}

// findPhrase claims and returns every unclaimed word-bounded occurrence of
// phrase.
func findPhrase(norm, phrase string, claimed spans) [][2]int {
	var out [][2]int
	for from := 0; ; {
		start := knowledge.IndexWord(norm, phrase, from)
		if start < 0 {
			return out
		}
		end := start + len(phrase)
		from = end
		if claimed.overlaps(start, end) {
			continue
		}
		claimed.claim(start, end)
		out = append(out, [2]int{start, end})
	}
}

func matchAll(norm string, phrases []string) []string {
	var out []string
	for _, p := range phrases {
		if knowledge.IndexWord(norm, p, 0) >= 0 {
			out = append(out, p)
		}
	}
	return out
}
