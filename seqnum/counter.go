// Package seqnum implements the 0..255 wrapping sequence counters used by
// the Sparkplug B wire protocol.
package seqnum

// Counter is an 8-bit counter that wraps from 255 back to 0. The zero value
// is a counter starting at 0.
type Counter uint8

// Next returns c+1, wrapping 255 to 0. It does not mutate c.
func (c Counter) Next() Counter {
	return c + 1
}

// Inc advances c in place and returns the new value.
func (c *Counter) Inc() Counter {
	*c = c.Next()
	return *c
}

// Reset sets c to 0.
func (c *Counter) Reset() {
	*c = 0
}

// Byte returns c as the single byte placed on the wire.
func (c Counter) Byte() byte {
	return byte(c)
}

// Pair bundles the two counters an edge node session tracks: seq, which
// increments on every NBIRTH/NDATA/DBIRTH/DDATA/DDEATH publish and resets to
// 0 on NBIRTH, and bdSeq, which increments once per connect attempt and is
// held fixed for the lifetime of that MQTT session so the NBIRTH and the
// NDEATH-as-will it is paired with carry the same value.
type Pair struct {
	Seq   Counter
	BdSeq Counter
}

// NewSession bumps BdSeq for a new connect attempt and resets Seq, matching
// the S0->S1 "connect()" action (bump bdSeq) together with the S1->S2
// "birth()" action (NBIRTH resets seq to 0) collapsed into the one counter
// mutation a fresh session needs before its will is registered.
func (p *Pair) NewSession() {
	p.BdSeq.Inc()
	p.Seq.Reset()
}

// TakeSeq returns the seq value to stamp on the next outgoing
// NBIRTH/NDATA/DBIRTH/DDATA/DDEATH and advances Seq for the call after it,
// wrapping 255 to 0. NDEATH does not call this; it carries no seq (I3).
// Calling TakeSeq immediately after NewSession yields 0, matching "NBIRTH
// resets seq to 0".
func (p *Pair) TakeSeq() Counter {
	v := p.Seq
	p.Seq = p.Seq.Next()

	return v
}
