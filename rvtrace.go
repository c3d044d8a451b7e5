// Package rvtrace reconstructs the executed instruction sequence from a
// RISC-V efficient trace encoder's packet stream and the binary image(s) it
// was captured against.
package rvtrace

import (
	"rvtrace/common"
	"rvtrace/internal/follower"
	"rvtrace/internal/image"
	"rvtrace/internal/tracepkt"
)

// ErrCorrupted is the sentinel a caller can test for with errors.Is to
// detect any reconstruction failure, regardless of its specific reason.
var ErrCorrupted = common.ErrCorrupted

// CorruptedError reports why the trace stream could not be reconstructed.
type CorruptedError = common.CorruptedError

// ParseTrace decodes traceBytes into packets and walks them against the
// combined address space of images (earlier images take precedence over
// later ones on overlap, per image.Merge) to reconstruct the sequence of
// executed program counters.
//
// It returns a *CorruptedError (wrapping ErrCorrupted) when the trace
// decodes zero packets, when the packet stream has no Sync packet, when it
// ends on something other than an Address packet (ignoring one trailing
// Support packet), or when the walk reaches a pc that no image covers. A
// trace whose packet decoding stops early because of a sequence gap or
// truncated frame, or
// that runs out of packets mid-reconstruction (an inferable branch with
// nothing left in the branch queue, or an uninferable branch with no
// following address packet) is not an error by itself — it degrades
// gracefully to whatever prefix of the path could be reconstructed.
// Callers that also want to know how much of traceBytes was actually
// consumed can call tracepkt.Decode directly.
func ParseTrace(traceBytes []byte, images []*image.Index) ([]uint32, error) {
	return ParseTraceWithLogger(traceBytes, images, common.NewNoOpLogger())
}

// ParseTraceWithLogger is ParseTrace with a caller-supplied logger: Debug
// traces packet dispatch in the decoder and synchronization events in the
// reconstructor.
func ParseTraceWithLogger(traceBytes []byte, images []*image.Index, logger common.Logger) ([]uint32, error) {
	packets, _ := tracepkt.DecodeWithLogger(traceBytes, logger)
	idx := image.Merge(images...)
	return follower.ReconstructWithLogger(packets, idx, logger)
}
