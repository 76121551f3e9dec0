// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-free primitives for relaybot. RingQueue buffers outgoing posts while
// the chat connection is down; producers never block and a full queue hands
// the rejected item back to the caller.
//
// All synchronization of slot payloads is carried by the per-slot sequence
// number: it is loaded before the payload is touched and stored after. The
// cursors only arbitrate which caller owns which position.
package concurrency
