// Package download implements the pipeline's download stage on top of
// the yt-dlp command line tool. It resolves indirect sources (RSS
// feeds, podcast episode pages) to a direct audio URL first, then
// extracts a normalized mp3 artifact plus descriptive metadata.
package download
