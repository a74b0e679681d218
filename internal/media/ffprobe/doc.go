// Package ffprobe runs ffprobe and decodes its JSON report.
//
// Prober validates dubbing inputs (an MP4 container carrying video and at
// least one audio stream) and answers stream and duration questions for the
// media stages.
package ffprobe
