package core

import "strings"

// Affinity is one of SQLite's five type affinities, derived from a
// column's declared type per the rules in the SQLite documentation
// (substring matching on TEXT/INT/BLOB/REAL, NUMERIC as fallback).
type Affinity string

const (
	AffinityText    Affinity = "TEXT"
	AffinityNumeric Affinity = "NUMERIC"
	AffinityInteger Affinity = "INTEGER"
	AffinityReal    Affinity = "REAL"
	AffinityBlob    Affinity = "BLOB"
)

// ColumnAffinity computes the type affinity of a declared column type
// following SQLite's documented algorithm: the first matching rule, in
// order, wins.
func ColumnAffinity(rawType string) Affinity {
	t := strings.ToUpper(rawType)
	switch {
	case t == "":
		return AffinityBlob
	case strings.Contains(t, "INT"):
		return AffinityInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return AffinityText
	case strings.Contains(t, "BLOB"):
		return AffinityBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return AffinityReal
	default:
		return AffinityNumeric
	}
}

// Column is a single table column (spec.md §3 "Table entity").
type Column struct {
	ColumnID ColumnID `json:"columnId"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Default  string   `json:"default,omitempty"`
	HasDefault bool   `json:"hasDefault"`

	Flags ColumnFlags `json:"flags"`

	// Order is the column's position within the CREATE TABLE statement,
	// 0-based. Preserved across edits.
	Order int `json:"order"`
}

// ColumnFlags captures the boolean column-level attributes named in
// spec.md §3.
type ColumnFlags struct {
	PrimaryKey    bool   `json:"primaryKey,omitempty"`
	AutoIncrement bool   `json:"autoIncrement,omitempty"`
	NotNull       bool   `json:"notNull,omitempty"`
	Unique        bool   `json:"unique,omitempty"`
	Collate       string `json:"collate,omitempty"`
	Check         string `json:"check,omitempty"`
	ForeignKey    *ForeignKeyRef `json:"foreignKey,omitempty"`
}

// ForeignKeyRef is an inline column-level REFERENCES clause.
type ForeignKeyRef struct {
	Table    string `json:"table"`
	Column   string `json:"column"`
	OnDelete string `json:"onDelete,omitempty"`
	OnUpdate string `json:"onUpdate,omitempty"`
}

// Affinity returns this column's computed type affinity.
func (c *Column) Affinity() Affinity { return ColumnAffinity(c.Type) }

// DefaultIsCurrentTimeLike reports whether the column's default literal is
// one of CURRENT_TIME / CURRENT_DATE / CURRENT_TIMESTAMP, or a parenthesized
// expression — the two shapes spec.md §4.2.1 rule 7 forbids for an added
// column on the SIMPLE path.
func (c *Column) DefaultIsCurrentTimeLike() bool {
	d := strings.ToUpper(strings.TrimSpace(c.Default))
	switch d {
	case "CURRENT_TIME", "CURRENT_DATE", "CURRENT_TIMESTAMP":
		return true
	}
	return strings.HasPrefix(strings.TrimSpace(c.Default), "(")
}

// FindColumn looks up a column by case-folded name.
func (t *Table) FindColumn(name string) *Column {
	key := FoldName(name)
	for _, c := range t.Columns {
		if FoldName(c.Name) == key {
			return c
		}
	}
	return nil
}

// ColumnByID looks up a column by its stable ColumnID.
func (t *Table) ColumnByID(id ColumnID) *Column {
	for _, c := range t.Columns {
		if c.ColumnID == id {
			return c
		}
	}
	return nil
}

// ColumnsByID indexes a column slice by ColumnID, for the diffing done in
// internal/planner.
func ColumnsByID(cols []*Column) map[ColumnID]*Column {
	m := make(map[ColumnID]*Column, len(cols))
	for _, c := range cols {
		m[c.ColumnID] = c
	}
	return m
}
