package trace

// Config controls a Trace's merge behavior. It is yaml-tagged the way
// friggdb's compactorConfig and walConfig are, even though arrangedb has no
// CLI of its own yet — config structs here are meant to be embedded in a
// caller's own yaml-driven configuration.
type Config struct {
	// MergeEffort is the number of batches a level may hold before they are
	// merged into the next level. Lower values merge more eagerly (less
	// memory, more CPU spent re-merging); higher values delay merging
	// (more memory, fewer re-merges). friggdb's analogous knob is
	// compactorConfig.BlocksAtOnce.
	MergeEffort int `yaml:"merge-effort"`

	// BloomFP is the false-positive rate used for merged batches' key
	// bloom filters. Zero disables bloom filters entirely.
	BloomFP float64 `yaml:"bloom-fp"`
}

func DefaultConfig() Config {
	return Config{
		MergeEffort: 4,
		BloomFP:     0.01,
	}
}
