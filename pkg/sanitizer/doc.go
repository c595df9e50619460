// Package sanitizer normalizes renter input before validation and before it
// is forwarded to the rental vendor.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings rather than errors; validation decides what is required.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number])
//   - Names and addresses: Collapse whitespace, trim leading/trailing spaces
//   - Emails: Trim and lowercase
//   - Codes (flight numbers, licence numbers): Uppercase, no whitespace
//   - Vendor ids: Trim only, the vendor is case sensitive
package sanitizer
