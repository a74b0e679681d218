// Package codec decodes audio files into pcm.Buffer values and encodes them
// back to disk.
//
// WAV is handled in-process with github.com/go-audio/wav. Compressed
// containers (mp3, flac, ogg, opus, m4a, aac) are transcoded through ffmpeg
// using an intermediate WAV file, so the rest of the pipeline only ever sees
// 16-bit PCM. Files with any other extension fail with UnsupportedFormatError.
package codec
