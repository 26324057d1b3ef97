package cscan

// Item is one declaration at a single bracket level, together with the
// attributes and comments directly above it.
type Item struct {
	Lead  []Token
	First int
	Last  int
}

// Start returns the offset of the item including its lead.
func (it Item) Start(toks []Token) int {
	if len(it.Lead) > 0 {
		return it.Lead[0].Start
	}
	return toks[it.First].Start
}

// Items splits toks[from:to] into declarations. A declaration runs up to the
// first ';' or balanced '{...}' at its own level. Comments on the same line
// as the end of the previous declaration are not attached to the next one.
func Items(toks []Token, from, to int) []Item {
	var items []Item
	var lead []Token
	prevLine := -1

	for i := from; i < to; {
		t := toks[i]
		if t.IsComment() || t.Kind == Attribute {
			if !(t.IsComment() && t.Line == prevLine && len(lead) == 0) {
				lead = append(lead, t)
			}
			i++
			continue
		}

		last := to - 1
		if end := Next(toks, i, "{", ";"); end >= 0 && end < to {
			last = end
			if toks[end].Is("{") {
				if m := Match(toks, end); m >= 0 && m < to {
					last = m
				}
			}
		}

		items = append(items, Item{Lead: lead, First: i, Last: last})
		lead = nil
		prevLine = toks[last].Line
		i = last + 1
	}
	return items
}
