// Package sanitizer provides input normalization functions applied before validation and storage.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions never return errors: input that cannot be normalized is
// returned trimmed so that validation rejects it with a field-level message.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number])
//   - Emails: Trim and lowercase
//   - Subdomains: Trim and lowercase
//   - URLs: Enforce HTTPS, lowercase host, drop tracking parameters
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Tags: Lowercase free-form labels such as specializations
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer
