// Package pricing computes cart money amounts: line subtotals, the single
// applied discount, tax and the final total. Every function is pure and
// degrades to "no discount" instead of failing on questionable input.
package pricing
