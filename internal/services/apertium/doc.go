// Package apertium talks to an Apertium APy translation server.
//
// APy identifies languages by ISO 639-2/3 codes ("eng", "spa", "cat"); the
// client converts BCP 47 tags before building language pairs. Pairs is used
// to check a target language is supported before the pipeline runs, and
// Translate sends one request per line.
package apertium
