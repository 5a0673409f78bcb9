package link

// SourceFilter is an optional source-IP allowlist for the command link. The
// link carries no authentication of its own, so locked-down deployments pin
// the commander addresses here. An empty filter accepts any sender.
type SourceFilter struct {
	allowed map[string]struct{}
}

func NewSourceFilter(sources []string) *SourceFilter {
	f := &SourceFilter{allowed: make(map[string]struct{})}
	for _, src := range sources {
		f.allowed[src] = struct{}{}
	}
	return f
}

func (f *SourceFilter) Allow(ip string) bool {
	if len(f.allowed) == 0 {
		return true
	}
	_, ok := f.allowed[ip]
	return ok
}
