// Package split provides frontier.Splitter implementations: a weighted
// variance criterion for regression and a Gini criterion for
// classification.
//
// Both evaluate every cut between distinct ranks of a candidate, treating
// the implicit samples of a dense predictor as one block at their rank.
// Missing observations always branch right.
package split
