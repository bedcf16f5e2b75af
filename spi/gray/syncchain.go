package gray

// A SyncChain models the two-register synchronizer that carries a Gray
// codeword into another clock domain. Step is called once per tick of the
// destination domain; the input becomes observable on the output after two
// steps, never partially.
type SyncChain struct {
	meta uint32
	out  uint32
}

// Step advances the chain by one destination-domain tick.
func (s *SyncChain) Step(input uint32) {
	s.out = s.meta
	s.meta = input
}

// Out returns the synchronized codeword.
func (s *SyncChain) Out() uint32 {
	return s.out
}

// Reset forces both stages to a value, as a synchronous reset does.
func (s *SyncChain) Reset(v uint32) {
	s.meta = v
	s.out = v
}
