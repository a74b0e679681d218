// Package loudness inspects a background track's peak level and decides
// whether it should be scaled before dubbed vocals are laid over it.
//
// Analysis is pure: it reads samples and reports a Result. Applying the gain
// is left to the caller (see package assembly).
package loudness
