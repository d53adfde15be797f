package classifier

// matcher is a byte-level Aho-Corasick automaton over lowercase ASCII or UTF-8 needles.
// Each node keeps a dense 256-way table so scanning never touches a map

type acNode struct {
	next [256]int32 // -1 when absent
	fail int32
	out  []int // needle ids ending here, including those reached through fail links
}

type matcher struct {
	nodes   []acNode
	needles []string
}

func newNode() acNode {
	var n acNode
	for i := range n.next {
		n.next[i] = -1
	}
	return n
}

// newMatcher builds the automaton for needles; empty needles are ignored
func newMatcher(needles []string) *matcher {
	m := &matcher{nodes: []acNode{newNode()}, needles: needles}
	for id, s := range needles {
		if s == "" {
			continue
		}
		state := int32(0)
		for i := 0; i < len(s); i++ {
			b := s[i]
			nxt := m.nodes[state].next[b]
			if nxt == -1 {
				nxt = int32(len(m.nodes))
				m.nodes[state].next[b] = nxt
				m.nodes = append(m.nodes, newNode())
			}
			state = nxt
		}
		m.nodes[state].out = append(m.nodes[state].out, id)
	}
	m.link()
	return m
}

// link computes failure links breadth first
func (m *matcher) link() {
	q := make([]int32, 0, len(m.nodes))
	for b := range 256 {
		if s := m.nodes[0].next[b]; s != -1 {
			m.nodes[s].fail = 0
			q = append(q, s)
		}
	}
	for qi := 0; qi < len(q); qi++ {
		r := q[qi]
		for b := range 256 {
			s := m.nodes[r].next[b]
			if s == -1 {
				continue
			}
			q = append(q, s)

			f := m.nodes[r].fail
			for f != 0 && m.nodes[f].next[b] == -1 {
				f = m.nodes[f].fail
			}
			if nxt := m.nodes[f].next[b]; nxt != -1 {
				m.nodes[s].fail = nxt
			} else {
				m.nodes[s].fail = 0
			}
			m.nodes[s].out = append(m.nodes[s].out, m.nodes[m.nodes[s].fail].out...)
		}
	}
}

// find returns the first needle occurrence, in scan order, that accept approves.
// accept gets the byte span [start,end) of the candidate in text; nil accepts everything
func (m *matcher) find(text string, accept func(start, end int) bool) (id, start, end int, ok bool) {
	if m == nil || len(m.nodes) == 1 {
		return 0, 0, 0, false
	}
	state := int32(0)
	for i := 0; i < len(text); i++ {
		b := text[i]
		for state != 0 && m.nodes[state].next[b] == -1 {
			state = m.nodes[state].fail
		}
		if nxt := m.nodes[state].next[b]; nxt != -1 {
			state = nxt
		}
		for _, id := range m.nodes[state].out {
			e := i + 1
			s := e - len(m.needles[id])
			if accept == nil || accept(s, e) {
				return id, s, e, true
			}
		}
	}
	return 0, 0, 0, false
}
