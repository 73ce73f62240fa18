// Package opus turns track audio into Opus frames and feeds them to a Discord
// voice connection.
//
// Frames travel in a minimal binary format: concatenated length-prefixed frames
// ([uint16 LE length][opus bytes]). No headers, no metadata.
//
// Encode and EncodeURL transcode audio to Opus via FFmpeg and produce framed
// output. FrameReader reads the frames back. StreamToVoice pumps them into a
// voice connection until the source runs dry or playback is stopped.
package opus
