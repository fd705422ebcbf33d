package ast

// Rule is one node of the rule tree: a condition group, an ordered
// operation list run on match, and child rule lists for the match and
// mismatch branches. The tree is finite and acyclic by construction.
type Rule struct {
	If       *ConditionGroup
	Ops      []*Operation
	Then     []*Rule
	Else     []*Rule
	Location Location
}

// Document is a parsed rule document: an ordered sequence of top-level
// rules, evaluated unconditionally in order against shared state.
type Document struct {
	Rules    []*Rule
	Location Location
}

// Empty reports whether the document contains no rules.
func (d *Document) Empty() bool {
	return d == nil || len(d.Rules) == 0
}

// Sites collects every invocation-site tag referenced by a `type`
// membership condition anywhere in the document. Hosts use this to
// register only the block hooks the rules can ever match.
func (d *Document) Sites() map[string]bool {
	sites := make(map[string]bool)
	if d == nil {
		return sites
	}
	for _, rule := range d.Rules {
		collectSites(rule, sites)
	}
	return sites
}

// collectSites walks one rule subtree accumulating `type` values,
// descending into cond expressions and nested operation rules.
func collectSites(rule *Rule, sites map[string]bool) {
	if rule == nil {
		return
	}
	collectGroupSites(rule.If, sites)
	for _, op := range rule.Ops {
		for _, child := range op.SubRules {
			collectSites(child, sites)
		}
	}
	for _, child := range rule.Then {
		collectSites(child, sites)
	}
	for _, child := range rule.Else {
		collectSites(child, sites)
	}
}

func collectGroupSites(group *ConditionGroup, sites map[string]bool) {
	if group == nil {
		return
	}
	for _, cond := range group.Conds {
		if cond.Field == FieldType {
			for _, v := range cond.Values {
				if v.Type == ValueTypeString {
					sites[v.Str] = true
				}
			}
		}
		if cond.Compare != nil {
			collectCompareSites(cond.Compare, sites)
		}
	}
}

func collectCompareSites(cmp *Comparison, sites map[string]bool) {
	if cmp == nil {
		return
	}
	if cmp.IsLeaf() {
		if cmp.Field == FieldType {
			for _, v := range cmp.Values {
				if v.Type == ValueTypeString {
					sites[v.Str] = true
				}
			}
		}
		return
	}
	for _, group := range cmp.Groups {
		collectGroupSites(group, sites)
	}
}
