// Package pitwall contains the core APIs for building a telemetry
// figure: a grid of subplots whose curves are filled statically,
// replayed from a recording, or streamed live from a publisher
// process over TCP.
//
// The transport lives in [ppub] and [psub], the wire format in
// [pwire], and the per-curve validation rules in [pcurve].
// Rendering is behind the [Renderer] interface; [prender] provides a
// PNG implementation.
package pitwall
