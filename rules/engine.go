package rules

import (
	"fmt"

	"github.com/milk9111/roomcheck/rooms"
)

// Evaluation is the result of one rule on one room.
type Evaluation struct {
	Room   *rooms.Room
	Rule   Rule
	Result Result
}

// Evaluate runs every rule over every room. The output is ordered by room,
// then by the order of rules.
func Evaluate(c *rooms.Collection, rules []Rule) []Evaluation {
	if c == nil {
		return nil
	}
	out := make([]Evaluation, 0, len(c.Rooms)*len(rules))
	for _, room := range c.Rooms {
		for _, rule := range rules {
			out = append(out, Evaluation{Room: room, Rule: rule, Result: check(rule, room)})
		}
	}
	return out
}

func check(rule Rule, room *rooms.Room) Result {
	res := guarded(rule, room)
	if res.Status == StatusError {
		res.Err = &RuleError{RuleID: rule.ID(), Filename: room.Filename, Err: res.Err}
	}
	return res
}

// guarded turns a panicking rule into an error result.
func guarded(rule Rule, room *rooms.Room) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Errored(fmt.Errorf("panic: %v", p))
		}
	}()
	return rule.Check(room)
}
