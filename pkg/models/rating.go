package models

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Rating is the user's assessment of how well an item was recalled
type Rating int

const (
	// RatingAgain - not recalled, show again soon
	RatingAgain Rating = iota
	// RatingHard - recalled with serious difficulty
	RatingHard
	// RatingGood - recalled after some hesitation
	RatingGood
	// RatingEasy - recalled without effort
	RatingEasy
	// RatingPerfect - instant, flawless recall
	RatingPerfect
)

// Ratings lists every rating from weakest to strongest
var Ratings = []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy, RatingPerfect}

var ratingNames = [...]string{"again", "hard", "good", "easy", "perfect"}

func (r Rating) String() string {
	if !r.Valid() {
		return fmt.Sprintf("rating(%d)", int(r))
	}
	return ratingNames[r]
}

// Valid reports whether r is one of the five known ratings
func (r Rating) Valid() bool {
	return r >= RatingAgain && r <= RatingPerfect
}

// ParseRating converts a rating name ("again", "Hard", ...) to a Rating
func ParseRating(s string) (Rating, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range ratingNames {
		if n == name {
			return Rating(i), nil
		}
	}
	return RatingAgain, errors.Errorf("unknown rating %q", s)
}

// RatingCounts holds one counter per rating bucket.
// Counters only grow: the only mutator is Increment.
type RatingCounts struct {
	Again   int `json:"again" db:"again"`
	Hard    int `json:"hard" db:"hard"`
	Good    int `json:"good" db:"good"`
	Easy    int `json:"easy" db:"easy"`
	Perfect int `json:"perfect" db:"perfect"`
}

// Increment adds exactly one to the bucket of r
func (c *RatingCounts) Increment(r Rating) {
	switch r {
	case RatingAgain:
		c.Again++
	case RatingHard:
		c.Hard++
	case RatingGood:
		c.Good++
	case RatingEasy:
		c.Easy++
	case RatingPerfect:
		c.Perfect++
	}
}

// Get returns the bucket value for r
func (c RatingCounts) Get(r Rating) int {
	switch r {
	case RatingAgain:
		return c.Again
	case RatingHard:
		return c.Hard
	case RatingGood:
		return c.Good
	case RatingEasy:
		return c.Easy
	case RatingPerfect:
		return c.Perfect
	}
	return 0
}

// Total is the number of rating events recorded
func (c RatingCounts) Total() int {
	return c.Again + c.Hard + c.Good + c.Easy + c.Perfect
}

// Failed counts the ratings that mean the item was not properly recalled
func (c RatingCounts) Failed() int {
	return c.Again + c.Hard
}

// Add returns the bucket-wise sum of c and other
func (c RatingCounts) Add(other RatingCounts) RatingCounts {
	return RatingCounts{
		Again:   c.Again + other.Again,
		Hard:    c.Hard + other.Hard,
		Good:    c.Good + other.Good,
		Easy:    c.Easy + other.Easy,
		Perfect: c.Perfect + other.Perfect,
	}
}
