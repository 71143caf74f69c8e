package symptoms

import (
	"regexp"
	"sort"

	"github.com/themobileprof/symptomcheck/internal/knowledge"
	"github.com/themobileprof/symptomcheck/internal/session"
)

// SeverityRule maps a cue phrase to a severity level.
type SeverityRule struct {
	Phrase string
	Level  session.Severity
}

// FrequencyRule maps a cue phrase to a frequency label.
type FrequencyRule struct {
	Phrase string
	Label  string
}

// DurationRule is a duration pattern. Quantity patterns capture the amount in
// group 1 and the unit in group 2; Unit is used when the pattern has no unit
// group.
type DurationRule struct {
	Pattern  *regexp.Regexp
	Quantity bool
	Unit     string
}

// Rules are the declarative pattern tables the extractor evaluates against
// normalized text. Every table can be tested on its own.
type Rules struct {
	Severity       []SeverityRule
	Scale          []*regexp.Regexp // group 1 is a 1-10 score
	Duration       []DurationRule
	Location       []*regexp.Regexp // group 1 starts the stored phrase
	Frequency      []FrequencyRule
	RedFlags       []string
	Negations      []string
	BackReferences []string
	NegationWindow int // words between a negation and the symptom it cancels
	ShortAnswer    int // utterances up to this many words may refer back implicitly
}

const (
	quantityWords = `\d+(?:\.\d+)?|a few|a couple of|a couple|couple of|few|several|an|a|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve`
	unitWords     = `minutes|minute|mins|min|hours|hour|hrs|hr|days|day|weeks|week|wks|wk|months|month|years|year|yrs|yr`
	bodyParts     = `side|part|area|half|region|head|chest|back|neck|stomach|abdomen|belly|arm|arms|leg|legs|foot|feet|knee|knees|shoulder|shoulders|throat|eye|eyes|ear|ears|face|hand|hands|hip|hips|temple|temples|forehead|jaw|wrist|wrists|ankle|ankles|elbow|elbows|ribs|groin|pelvis|skin|body|joints|muscles|spine|mouth|nose|tongue|teeth|tooth|toes|fingers`
	sideWords     = `left|right|upper|lower|middle|front|back|top|bottom|centre|center|inner|outer`
)

// DefaultRules returns the stock English rule tables.
func DefaultRules() *Rules {
	return &Rules{
		Severity: []SeverityRule{
			{"severe", session.SeveritySevere},
			{"severely", session.SeveritySevere},
			{"really bad", session.SeveritySevere},
			{"very bad", session.SeveritySevere},
			{"so bad", session.SeveritySevere},
			{"terrible", session.SeveritySevere},
			{"terribly", session.SeveritySevere},
			{"excruciating", session.SeveritySevere},
			{"unbearable", session.SeveritySevere},
			{"intense", session.SeveritySevere},
			{"extreme", session.SeveritySevere},
			{"extremely", session.SeveritySevere},
			{"worst", session.SeveritySevere},
			{"awful", session.SeveritySevere},
			{"agonizing", session.SeveritySevere},
			{"agonising", session.SeveritySevere},
			{"horrible", session.SeveritySevere},
			{"sharp", session.SeveritySevere},
			{"crushing", session.SeveritySevere},
			{"killing me", session.SeveritySevere},
			{"can't handle", session.SeveritySevere},
			{"cant handle", session.SeveritySevere},
			{"moderate", session.SeverityModerate},
			{"moderately", session.SeverityModerate},
			{"bad", session.SeverityModerate},
			{"pretty bad", session.SeverityModerate},
			{"quite bad", session.SeverityModerate},
			{"uncomfortable", session.SeverityModerate},
			{"bothering", session.SeverityModerate},
			{"bothersome", session.SeverityModerate},
			{"medium", session.SeverityModerate},
			{"annoying", session.SeverityModerate},
			{"mild", session.SeverityMild},
			{"mildly", session.SeverityMild},
			{"slight", session.SeverityMild},
			{"slightly", session.SeverityMild},
			{"a little", session.SeverityMild},
			{"a bit", session.SeverityMild},
			{"bit of", session.SeverityMild},
			{"minor", session.SeverityMild},
			{"barely", session.SeverityMild},
			{"gentle", session.SeverityMild},
			{"not too bad", session.SeverityMild},
			{"not that bad", session.SeverityMild},
			{"not so bad", session.SeverityMild},
			{"not bad", session.SeverityMild},
		},
		Scale: []*regexp.Regexp{
			regexp.MustCompile(`\b(\d{1,2}) (?:out of|over) 10\b`),
			regexp.MustCompile(`\b(\d{1,2}) 10\b`),
			regexp.MustCompile(`\b(?:rate it|rated it|rate it at|i'd say|it's a|its a|pain is a|pain is|pain level|level) (?:a |an |at |about |around )?(\d{1,2})\b`),
		},
		Duration: []DurationRule{
			{Pattern: regexp.MustCompile(`\b(?:(?:for|since|over|in) )?(?:the )?(?:(?:past|last) )?(` + quantityWords + `) ?(` + unitWords + `)(?: ago)?\b`), Quantity: true},
			{Pattern: regexp.MustCompile(`\b(?:for|since|over|in) (?:the )?(?:past|last) (hour|day|week|month|year)\b`), Quantity: true},
			{Pattern: regexp.MustCompile(`\b(?:since |from |starting |started )?(yesterday|last night|this morning|this afternoon|this evening|today|tonight|last week|this week|last weekend|the weekend|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)},
			{Pattern: regexp.MustCompile(`\bsince (\d{1,2}(?: ?[ap]m)?|noon|midnight|lunch|breakfast|dinner)\b`)},
		},
		Location: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:on|in|at|around|behind|across|over|under) (?:the|my|your|his|her|their|our) ((?:(?:` + sideWords + `) )*(?:` + bodyParts + `))(?: of (?:my|the|his|her) [a-z]+)?\b`),
		},
		Frequency: []FrequencyRule{
			{"constant", "constant"},
			{"constantly", "constant"},
			{"all the time", "constant"},
			{"always", "constant"},
			{"won't stop", "constant"},
			{"continuous", "constant"},
			{"non stop", "constant"},
			{"daily", "daily"},
			{"every day", "daily"},
			{"everyday", "daily"},
			{"each day", "daily"},
			{"once a day", "daily"},
			{"twice a day", "daily"},
			{"every morning", "daily"},
			{"every night", "daily"},
			{"every hour", "hourly"},
			{"hourly", "hourly"},
			{"often", "frequent"},
			{"frequently", "frequent"},
			{"multiple times", "frequent"},
			{"sometimes", "occasional"},
			{"occasionally", "occasional"},
			{"now and then", "occasional"},
			{"on and off", "occasional"},
			{"comes and goes", "occasional"},
			{"intermittent", "occasional"},
			{"once", "once"},
			{"one time", "once"},
			{"just happened", "once"},
		},
		RedFlags: []string{
			"can't catch my breath",
			"cant catch my breath",
			"gasping",
			"crushing chest",
			"crushing pain",
			"blue lips",
			"lips are blue",
			"coughing up blood",
			"vomiting blood",
			"throwing up blood",
			"blood in my stool",
			"passed out",
			"fainted",
			"unconscious",
			"worst headache of my life",
			"thunderclap headache",
			"stiff neck",
			"slurred speech",
			"face drooping",
			"face is drooping",
			"numb on one side",
			"seizure",
			"suicidal",
			"swollen tongue",
			"throat is closing",
		},
		Negations: []string{
			"no", "without", "never had", "never have", "not have", "not having",
			"don't have", "dont have", "do not have", "didn't have", "did not have",
			"haven't had", "havent had", "haven't got", "no longer have", "free of",
			"no sign of", "no signs of", "not", "not a",
		},
		BackReferences: []string{"it", "it's", "its", "that", "this", "the pain", "same", "now", "still"},
		NegationWindow: 2,
		ShortAnswer:    4,
	}
}

type severityPhrase struct {
	text  string
	level session.Severity
}

type frequencyPhrase struct {
	text  string
	label string
}

// compiled holds the rule tables with phrases normalized and sorted longest
// first.
type compiled struct {
	severity       []severityPhrase
	frequency      []frequencyPhrase
	scale          []*regexp.Regexp
	duration       []DurationRule
	location       []*regexp.Regexp
	redFlags       []string
	negations      []string
	backReferences []string
	negationWindow int
	shortAnswer    int
}

func compile(r *Rules) *compiled {
	c := &compiled{
		scale:          r.Scale,
		duration:       r.Duration,
		location:       r.Location,
		redFlags:       normalizeAll(r.RedFlags),
		negations:      normalizeAll(r.Negations),
		backReferences: normalizeAll(r.BackReferences),
		negationWindow: r.NegationWindow,
		shortAnswer:    r.ShortAnswer,
	}
	for _, s := range r.Severity {
		if p := knowledge.Normalize(s.Phrase); p != "" {
			c.severity = append(c.severity, severityPhrase{text: p, level: s.Level})
		}
	}
	for _, f := range r.Frequency {
		if p := knowledge.Normalize(f.Phrase); p != "" {
			c.frequency = append(c.frequency, frequencyPhrase{text: p, label: f.Label})
		}
	}
	sort.SliceStable(c.severity, func(i, j int) bool { return len(c.severity[i].text) > len(c.severity[j].text) })
	sort.SliceStable(c.frequency, func(i, j int) bool { return len(c.frequency[i].text) > len(c.frequency[j].text) })
	return c
}

func normalizeAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := knowledge.Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
