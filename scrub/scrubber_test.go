package scrub

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrubEmail(t *testing.T) {
	s := New()
	out := s.Scrub("contact alice.w@example.org for details")
	assert.NotContains(t, out, "alice.w@example.org")
	assert.Contains(t, out, TokenEmail)
}

func TestScrubIP(t *testing.T) {
	s := New()
	out := s.Scrub("server at 192.168.0.17 timed out")
	assert.NotContains(t, out, "192.168.0.17")
	assert.Contains(t, out, TokenIP)
}

func TestScrubPhone(t *testing.T) {
	s := New()
	for _, phone := range []string{"555-123-4567", "+1 555 123 4567", "(555) 123-4567"} {
		out := s.Scrub("call " + phone + " now")
		assert.NotContains(t, out, phone, "phone %q should be scrubbed", phone)
		assert.Contains(t, out, TokenPhone)
	}
}

func TestScrubPersonNames(t *testing.T) {
	s := New()

	t.Run("honorific", func(t *testing.T) {
		out := s.Scrub("Dr. Sarah Singh reviewed the chart")
		assert.NotContains(t, out, "Sarah Singh")
		assert.Contains(t, out, TokenPerson)
	})

	t.Run("capitalized bigram", func(t *testing.T) {
		out := s.Scrub("the patient John Smith was discharged")
		assert.NotContains(t, out, "John Smith")
		assert.Contains(t, out, TokenPerson)
	})
}

func TestScrubMixed(t *testing.T) {
	s := New()
	out := s.Scrub("Email John Smith at jsmith@corp.com or 555-867-5309 from 10.0.0.1")
	assert.Contains(t, out, TokenPerson)
	assert.Contains(t, out, TokenEmail)
	assert.Contains(t, out, TokenPhone)
	assert.Contains(t, out, TokenIP)
}

func TestScrubLeavesPlainText(t *testing.T) {
	s := New()
	in := "the quarterly report covers revenue and churn"
	assert.Equal(t, in, s.Scrub(in))
}

func TestScrubEmpty(t *testing.T) {
	s := New()
	assert.Equal(t, "", s.Scrub(""))
}

func TestDisabledScrubberPassesThrough(t *testing.T) {
	s := New()
	s.enabled = false
	in := "Dr. Sarah Singh, sarah@clinic.org"
	assert.Equal(t, in, s.Scrub(in))
}

// failingRecognizer simulates a recognizer error at call time.
type failingRecognizer struct{}

func (failingRecognizer) Name() string { return "failing" }
func (failingRecognizer) Replace(string) (string, error) {
	return "", errors.New("recognizer exploded")
}

func TestRecognizerFailureReturnsOriginal(t *testing.T) {
	s := New()
	// Prepend a failing recognizer so later ones never run.
	s.recognizers = append([]recognizer{failingRecognizer{}}, s.recognizers...)

	in := "Email alice@example.com"
	out := s.Scrub(in)
	assert.Equal(t, in, out)
	assert.False(t, strings.Contains(out, TokenEmail))
}
