package core

import "sort"

// Catalogue is the in-memory reflection of every database object described
// in spec.md §2 component A ("Schema Catalogue"): one bucket per Category,
// keyed case-insensitively by name. internal/catalogue.Catalogue wraps this
// with the sqlite_master refresh (the lock registry lives on
// internal/sqlitedb.DB); this type is the pure
// data shape both internal/planner and internal/grid consume.
type Catalogue struct {
	Tables   map[string]*Table
	Indexes  map[string]*Index
	Views    map[string]*View
	Triggers map[string]*Trigger
}

// NewCatalogue returns an empty Catalogue with all buckets initialized.
func NewCatalogue() *Catalogue {
	return &Catalogue{
		Tables:   make(map[string]*Table),
		Indexes:  make(map[string]*Index),
		Views:    make(map[string]*View),
		Triggers: make(map[string]*Trigger),
	}
}

// Get returns the entity of the given category and name, if any, plus
// whether it exists. Name lookup is case-insensitive (spec.md §9).
func (c *Catalogue) Get(cat Category, name string) (Named, bool) {
	key := FoldName(name)
	switch cat {
	case CategoryTable:
		if t, ok := c.Tables[key]; ok {
			return t, true
		}
	case CategoryIndex:
		if i, ok := c.Indexes[key]; ok {
			return i, true
		}
	case CategoryView:
		if v, ok := c.Views[key]; ok {
			return v, true
		}
	case CategoryTrigger:
		if tr, ok := c.Triggers[key]; ok {
			return tr, true
		}
	}
	return nil, false
}

// NameExists reports whether any object of any category already uses this
// name — spec.md §4.2.4(ii): "new name does not collide with an existing
// object of any category (case-insensitive)".
func (c *Catalogue) NameExists(name string) bool {
	key := FoldName(name)
	if _, ok := c.Tables[key]; ok {
		return true
	}
	if _, ok := c.Indexes[key]; ok {
		return true
	}
	if _, ok := c.Views[key]; ok {
		return true
	}
	if _, ok := c.Triggers[key]; ok {
		return true
	}
	return false
}

// Put inserts or replaces an entity, keyed by its case-folded name.
func (c *Catalogue) Put(e Named) {
	switch v := e.(type) {
	case *Table:
		c.Tables[FoldName(v.Name)] = v
	case *Index:
		c.Indexes[FoldName(v.Name)] = v
	case *View:
		c.Views[FoldName(v.Name)] = v
	case *Trigger:
		c.Triggers[FoldName(v.Name)] = v
	}
}

// Remove deletes the entity of the given category and name.
func (c *Catalogue) Remove(cat Category, name string) {
	key := FoldName(name)
	switch cat {
	case CategoryTable:
		delete(c.Tables, key)
	case CategoryIndex:
		delete(c.Indexes, key)
	case CategoryView:
		delete(c.Views, key)
	case CategoryTrigger:
		delete(c.Triggers, key)
	}
}

// IndexesOn returns every index whose Table matches tableName.
func (c *Catalogue) IndexesOn(tableName string) []*Index {
	key := FoldName(tableName)
	var out []*Index
	for _, idx := range c.Indexes {
		if FoldName(idx.Table) == key {
			out = append(out, idx)
		}
	}
	sortNamed(out)
	return out
}

// TriggersOn returns every trigger whose Table matches tableName.
func (c *Catalogue) TriggersOn(tableName string) []*Trigger {
	key := FoldName(tableName)
	var out []*Trigger
	for _, tr := range c.Triggers {
		if FoldName(tr.Table) == key {
			out = append(out, tr)
		}
	}
	sortNamed(out)
	return out
}

// ViewsReferencing returns every view whose Select text mentions name as a
// whole-word token. Used by internal/planner's complex rebuild to find the
// dependent views it drops and re-creates.
func ViewsReferencing(c *Catalogue, name string) []*View {
	var out []*View
	for _, v := range c.Views {
		if mentionsIdentifier(v.Select, name) {
			out = append(out, v)
		}
	}
	sortNamed(out)
	return out
}

// TriggersReferencing returns every trigger (on any table) whose body or
// when-clause mentions name as a whole-word token.
func TriggersReferencing(c *Catalogue, name string) []*Trigger {
	var out []*Trigger
	for _, tr := range c.Triggers {
		if mentionsIdentifier(tr.Body, name) || mentionsIdentifier(tr.When, name) {
			out = append(out, tr)
		}
	}
	sortNamed(out)
	return out
}

// ColumnDependents returns, for each dropped column name on table, the
// list of dependent object names (indexes, views, triggers) that still
// reference it — spec.md §4.2.4(iii).
func (c *Catalogue) ColumnDependents(tableName string, columnNames []string) map[string][]string {
	deps := make(map[string][]string)
	for _, col := range columnNames {
		var names []string
		for _, idx := range c.IndexesOn(tableName) {
			for _, ic := range idx.Columns {
				if FoldName(ic.Name) == FoldName(col) {
					names = append(names, idx.Name)
					break
				}
			}
		}
		for _, v := range c.Views {
			if mentionsIdentifier(v.Select, col) {
				names = append(names, v.Name)
			}
		}
		for _, tr := range c.Triggers {
			if FoldName(tr.Table) == FoldName(tableName) && (mentionsIdentifier(tr.Body, col) || mentionsIdentifier(tr.When, col)) {
				names = append(names, tr.Name)
			}
		}
		if len(names) > 0 {
			deps[col] = names
		}
	}
	return deps
}

func sortNamed[T Named](items []T) {
	sort.Slice(items, func(i, j int) bool {
		return FoldName(items[i].GetName()) < FoldName(items[j].GetName())
	})
}

// mentionsIdentifier reports whether text contains name as a standalone
// token (not part of a larger identifier), case-insensitively. It is a
// conservative textual heuristic, not a SQL-aware reference resolver —
// internal/grammar.Transform is the component that actually rewrites
// references safely; this helper is only used to decide *whether* a
// dependency exists.
func mentionsIdentifier(text, name string) bool {
	if name == "" {
		return false
	}
	return containsToken(text, name)
}

func containsToken(text, tok string) bool {
	lt, ltok := []rune(FoldName(text)), []rune(FoldName(tok))
	if len(ltok) == 0 {
		return false
	}
	isWordByte := func(r rune) bool {
		return r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
	}
	n, m := len(lt), len(ltok)
	for i := 0; i+m <= n; i++ {
		if string(lt[i:i+m]) != string(ltok) {
			continue
		}
		leftOK := i == 0 || !isWordByte(lt[i-1])
		rightOK := i+m == n || !isWordByte(lt[i+m])
		if leftOK && rightOK {
			return true
		}
	}
	return false
}
