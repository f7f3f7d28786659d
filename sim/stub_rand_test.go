package sim

// scriptedRand replays fixed draw sequences, cycling when a sequence is
// exhausted. It counts the draws it serves.
type scriptedRand struct {
	floats []float64
	ints   []int

	floatCalls int
	intCalls   int
}

func (r *scriptedRand) Float64() float64 {
	v := r.floats[r.floatCalls%len(r.floats)]
	r.floatCalls++

	return v
}

func (r *scriptedRand) Intn(n int) int {
	v := r.ints[r.intCalls%len(r.ints)]
	r.intCalls++

	return v % n
}
