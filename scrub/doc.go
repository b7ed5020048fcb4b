// Package scrub provides best-effort PII anonymization applied to text
// before it leaves the process boundary.
//
// Detection is regex-based and intentionally aggressive: it is preferable to
// anonymize a proper noun that is not a person than to leak one that is.
// Scrubbing failures never propagate to callers; the worst case is that the
// original text is sent unmodified.
package scrub
