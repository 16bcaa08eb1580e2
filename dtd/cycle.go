package dtd

import "strings"

// HasCycle reports the name of an entity involved in a reference cycle,
// if any (spec §4.7: "before expansion, build the entity-to-entity
// reference graph and reject if any strongly connected component of
// size >= 1 exists"). General and parameter entities are checked as two
// independent graphs, since a general entity value references other
// general entities via "&name;" and a parameter entity value references
// other parameter entities via "%name;" (XML 1.0 §4.1); the two
// namespaces never share nodes.
func (m *Model) HasCycle() (string, bool) {
	if name, ok := findCycle(m.General, '&'); ok {
		return name, true
	}
	if name, ok := findCycle(m.Parameter, '%'); ok {
		return name, true
	}
	return "", false
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	done
)

func findCycle(entities map[string]Entity, sigil byte) (string, bool) {
	state := make(map[string]visitState, len(entities))

	var visit func(name string) (string, bool)
	visit = func(name string) (string, bool) {
		switch state[name] {
		case visiting:
			return name, true
		case done:
			return "", false
		}
		e, ok := entities[name]
		if !ok {
			return "", false // reference to an undeclared entity: not this package's concern
		}
		state[name] = visiting
		for _, ref := range referencedNames(e.Value, sigil) {
			if _, ok := entities[ref]; !ok {
				continue
			}
			if cycleName, found := visit(ref); found {
				return cycleName, true
			}
		}
		state[name] = done
		return "", false
	}

	for name := range entities {
		if state[name] == unvisited {
			if cycleName, found := visit(name); found {
				return cycleName, true
			}
		}
	}
	return "", false
}

// referencedNames scans value for "<sigil>name;" references, returning
// the referenced names in order of appearance.
func referencedNames(value string, sigil byte) []string {
	var out []string
	for i := 0; i < len(value); i++ {
		if value[i] != sigil {
			continue
		}
		semi := strings.IndexByte(value[i+1:], ';')
		if semi == -1 {
			continue
		}
		name := value[i+1 : i+1+semi]
		if name != "" && name[0] != '#' {
			out = append(out, name)
		}
		i += semi + 1
	}
	return out
}
