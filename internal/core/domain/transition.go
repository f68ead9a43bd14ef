package domain

import "slices"

// transitionTable is a directed edge list keyed by source state. States
// without an entry, or with an empty entry, are terminal.
type transitionTable[S ~string] map[S][]S

func (t transitionTable[S]) allows(from, to S) bool {
	return slices.Contains(t[from], to)
}

// next returns a copy so callers cannot edit the table.
func (t transitionTable[S]) next(from S) []S {
	return slices.Clone(t[from])
}

func (t transitionTable[S]) terminal(s S) bool {
	return len(t[s]) == 0
}

func (t transitionTable[S]) names(from S) []string {
	out := make([]string, 0, len(t[from]))
	for _, s := range t[from] {
		out = append(out, string(s))
	}
	return out
}
