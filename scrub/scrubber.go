// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package scrub

import (
	"log/slog"
	"regexp"
)

// Anonymization tokens substituted for detected spans.
const (
	TokenPerson = "<PERSON>"
	TokenPhone  = "<PHONE_NUMBER>"
	TokenEmail  = "<EMAIL_ADDRESS>"
	TokenIP     = "<IP_ADDRESS>"
)

// recognizer detects one category of PII and replaces it with a token.
type recognizer interface {
	Name() string
	Replace(text string) (string, error)
}

// regexRecognizer is a recognizer backed by a single compiled pattern.
type regexRecognizer struct {
	name    string
	pattern *regexp.Regexp
	token   string
}

func (r *regexRecognizer) Name() string { return r.name }

func (r *regexRecognizer) Replace(text string) (string, error) {
	return r.pattern.ReplaceAllString(text, r.token), nil
}

// Recognizer patterns. Emails, phones, and IPs must run before the person
// heuristic so that structured spans are not half-consumed by it.
var recognizerSpecs = []struct {
	name    string
	pattern string
	token   string
}{
	{"email", `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`, TokenEmail},
	{"ip", `\b(?:\d{1,3}\.){3}\d{1,3}\b`, TokenIP},
	{"phone", `\+?\d{1,2}[-. ]?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`, TokenPhone},
	// Honorific-prefixed names, then bare capitalized bigrams. The bigram
	// rule over-matches proper nouns in general; that is the accepted cost
	// of best-effort anonymization before text leaves the process.
	{"person-honorific", `\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`, TokenPerson},
	{"person", `\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`, TokenPerson},
}

// Scrubber performs best-effort anonymization of person names, phone
// numbers, email addresses, and IP addresses.
//
// Scrub never fails: if the scrubber could not be initialized it passes
// text through unchanged for the lifetime of the process, and a recognizer
// failure on an individual call returns the original text with a warning.
type Scrubber struct {
	recognizers []recognizer
	enabled     bool
	logger      *slog.Logger
}

// Option configures a Scrubber.
type Option func(*Scrubber)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scrubber) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scrubber. If any recognizer pattern fails to compile the
// scrubber is permanently disabled rather than failing construction; the
// condition is logged once.
func New(opts ...Option) *Scrubber {
	s := &Scrubber{
		logger:  slog.Default().With("component", "scrubber"),
		enabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, spec := range recognizerSpecs {
		pattern, err := regexp.Compile(spec.pattern)
		if err != nil {
			s.logger.Error("failed to initialize recognizer; scrubbing disabled",
				"recognizer", spec.name, "err", err)
			s.enabled = false
			s.recognizers = nil
			return s
		}
		s.recognizers = append(s.recognizers, &regexRecognizer{
			name:    spec.name,
			pattern: pattern,
			token:   spec.token,
		})
	}
	return s
}

// Enabled reports whether scrubbing is active for this process.
func (s *Scrubber) Enabled() bool {
	return s.enabled
}

// Scrub anonymizes detected PII spans in text. It never returns an error:
// on recognizer failure the original text is returned unmodified.
func (s *Scrubber) Scrub(text string) string {
	if !s.enabled || text == "" {
		return text
	}

	scrubbed := text
	for _, r := range s.recognizers {
		replaced, err := r.Replace(scrubbed)
		if err != nil {
			s.logger.Warn("recognizer failed; returning text unmodified",
				"recognizer", r.Name(), "err", err)
			return text
		}
		scrubbed = replaced
	}
	return scrubbed
}
