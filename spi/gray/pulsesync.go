package gray

// A PulseSync carries single request pulses from domain A to domain B and
// grants back, using one-bit Gray (toggle) counters. Because only one bit
// ever changes, a synchronized sample is always either the current or the
// previous counter value, so every observed change is exactly one request.
//
// StepA must be called once per domain-A tick and StepB once per domain-B
// tick, in whatever order the two domains happen to interleave.
type PulseSync struct {
	reqCnt   Counter
	grantCnt Counter

	reqAtB   SyncChain // A's request counter as seen in B
	grantAtA SyncChain // B's grant counter as seen in A

	lastReqSeenAtB uint32
}

// NewPulseSync creates a pulse synchronizer.
func NewPulseSync() *PulseSync {
	return &PulseSync{
		reqCnt:   NewCounter(1),
		grantCnt: NewCounter(1),
	}
}

// CanRequest reports whether domain A may issue a new request. A request is
// allowed only after the previous one has been granted, which bounds the
// counters to at most one codeword of distance.
func (p *PulseSync) CanRequest() bool {
	return p.grantAtA.Out() == p.reqCnt.Gray()
}

// Request issues a request from domain A.
func (p *PulseSync) Request() {
	if !p.CanRequest() {
		panic("request issued while previous request is still in flight")
	}

	p.reqCnt.Inc()
}

// StepA advances the domain-A side by one tick.
func (p *PulseSync) StepA() {
	p.grantAtA.Step(p.grantCnt.Gray())
}

// StepB advances the domain-B side by one tick. It returns true when
// exactly one new request is delivered; the grant travels back
// automatically.
func (p *PulseSync) StepB() bool {
	p.reqAtB.Step(p.reqCnt.Gray())

	if p.reqAtB.Out() == p.lastReqSeenAtB {
		return false
	}

	p.lastReqSeenAtB = p.reqAtB.Out()
	p.grantCnt.Inc()

	return true
}
