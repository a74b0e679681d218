// Package pcm holds decoded audio as interleaved signed 16-bit samples and the
// sample-level operations the dubbing pipeline performs on it.
//
// Buffer values are plain data: slicing, silence generation, gain, and
// overlay all saturate at the int16 bounds and never reinterpret the sample
// rate. Conform converts a buffer to another rate/channel layout using
// github.com/tphakala/go-audio-resampling so dubbed chunks can be laid over a
// background track recorded at a different rate.
package pcm
