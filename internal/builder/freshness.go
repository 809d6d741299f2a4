package builder

import "time"

// IsFresh reports whether a build completed for a source at least as new as
// t.
func (b *Builder) IsFresh(t time.Time) bool {
	return b.built && !b.lastBuild.Before(t)
}

// LastBuild returns the source timestamp recorded by the last successful
// Build.
func (b *Builder) LastBuild() (time.Time, bool) {
	return b.lastBuild, b.built
}

func (b *Builder) markBuilt(t time.Time) {
	b.lastBuild = t
	b.built = true
}
