package mudgate

// OutboundMessage is one entry in a session's outbound queue.
// ActivateCompression marks the MCCP2-start message: the writer begins
// deflating every byte strictly after this message's own bytes are
// written. DeactivateCompression marks the message after which the writer
// drops the deflate stream (MCCP2 disabled). HalfClose marks the final
// message of a clean shutdown.
type OutboundMessage struct {
	Data                  []byte
	ActivateCompression   bool
	DeactivateCompression bool
	HalfClose             bool
}

// outboundQueue is a small channel-backed FIFO. Enqueue does not block the
// coordinator goroutine under normal load — option handlers enqueue into the
// outbox but never await on it — the channel is sized generously and the
// writer goroutine is the only consumer, so backpressure only appears under
// sustained write stalls, at which point push blocks on the full queue
// rather than growing without bound.
type outboundQueue struct {
	ch chan OutboundMessage
}

func newOutboundQueue() *outboundQueue {
	return &outboundQueue{ch: make(chan OutboundMessage, 256)}
}

func (q *outboundQueue) push(msg OutboundMessage) {
	q.ch <- msg
}

func (q *outboundQueue) dequeue() <-chan OutboundMessage {
	return q.ch
}
