// Package sanitizer normalizes user-supplied text before validation and
// persistence: display labels, free-text descriptions, the unconstrained
// "Other" category strings, and contact phone numbers.
//
// Sanitization never rejects input; it only strips what could corrupt
// queries or rendering. Rejection is the validators' job.
package sanitizer
