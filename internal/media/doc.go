// Package media turns user queries into playable YouTube tracks and opens
// audio streams for them.
//
// A Resolver answers "what should be played": a direct link is looked up for
// its canonical title and URL, anything else is searched and the first hit is
// taken. A Streamer answers "what does it sound like": it opens the audio of a
// Track and hands back length-prefixed Opus frames ready for a voice
// connection (see package opus).
package media
