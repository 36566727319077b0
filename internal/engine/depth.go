package engine

// depthGuard bounds how deeply incorporation may nest.
//
// Each stored bound incorporates immediately, and incorporation stores more
// bounds, so a pathological nesting of generics recurses deeply. The
// anti-recursion check keeps the bound set finite; the guard only caps the
// stack.
type depthGuard struct {
	max     int // 0 means unlimited
	current int
}

// enter reports whether one more level of incorporation is allowed and,
// if so, descends into it. Every successful enter must be paired with leave.
func (g *depthGuard) enter() bool {
	if g.max > 0 && g.current >= g.max {
		return false
	}
	g.current++
	return true
}

func (g *depthGuard) leave() {
	g.current--
}
