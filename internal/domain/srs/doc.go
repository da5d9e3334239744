// Package srs implements the level-based spaced repetition schedule.
//
// Each record sits on a level that indexes a fixed table of review
// intervals modelled on the Ebbinghaus forgetting curve. A correct answer
// moves the record one level up, an incorrect one moves it one level down,
// and the next review is scheduled one interval of the new level after the
// review. All functions are pure; persistence is handled by the caller.
package srs
