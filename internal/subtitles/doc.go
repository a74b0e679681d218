// Package subtitles renders utterance records as SRT files.
//
// Original subtitles use each utterance's transcribed text; dubbed subtitles
// use its translation. Cue timing always comes from the utterance interval,
// so both files line up with the dubbed audio.
package subtitles
