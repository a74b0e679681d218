// Package video moves audio in and out of MP4 containers with ffmpeg.
//
// ExtractAudio pulls the first audio stream into an MP3 next to the other
// intermediate files. Remux copies the original video stream, replaces the
// soundtrack with the dubbed audio (AAC), and optionally embeds SRT files as
// soft mov_text subtitles. Output is written to a temporary file and renamed
// into place.
package video
