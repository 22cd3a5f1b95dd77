// Package partition splits a dataset into disjoint train and test subsets
// using a seeded shuffle.
package partition
