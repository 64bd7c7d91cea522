package report

import (
	"errors"

	"github.com/milk9111/roomcheck/rooms"
	"github.com/milk9111/roomcheck/rules"
)

// Entry is one room that needs attention under a rule.
type Entry struct {
	Filename string
	Status   rules.Status
	Note     string
	Err      error
}

// Message is the text shown after the filename, if any. Rule errors show only
// their cause since the section already names the rule and the room.
func (e Entry) Message() string {
	if e.Err == nil {
		return ""
	}
	var re *rules.RuleError
	if errors.As(e.Err, &re) && re.Err != nil {
		return re.Err.Error()
	}
	return e.Err.Error()
}

// Extracted is the set of values a rule pulled out of one room.
type Extracted struct {
	Filename string
	Values   []string
}

// Section summarizes one rule across the collection.
type Section struct {
	RuleID      string
	Description string
	Counts      map[rules.Status]int
	// Attention holds fail and error entries in collection order.
	Attention []Entry
	Extracted []Extracted
}

// Failed lists the rooms with a fail result.
func (s *Section) Failed() []string {
	var out []string
	for _, e := range s.Attention {
		if e.Status == rules.StatusFail {
			out = append(out, e.Filename)
		}
	}
	return out
}

type Report struct {
	Rooms      int
	Failures   []*rooms.LoadError
	Sections   []*Section
	Aggregates []*AggregateResult

	byID map[string]*Section
}

// Summarize folds evaluations into per-rule sections, ordered by the first
// time each rule appears. Evaluate emits rules in registration order for every
// room, so that is registration order.
func Summarize(c *rooms.Collection, evals []rules.Evaluation) *Report {
	r := &Report{byID: make(map[string]*Section)}
	if c != nil {
		r.Rooms = len(c.Rooms)
		r.Failures = append(r.Failures, c.Failures...)
	}
	for _, ev := range evals {
		id := ev.Rule.ID()
		sec, ok := r.byID[id]
		if !ok {
			sec = &Section{
				RuleID:      id,
				Description: ev.Rule.Description(),
				Counts:      make(map[rules.Status]int),
			}
			r.byID[id] = sec
			r.Sections = append(r.Sections, sec)
		}
		res := ev.Result
		sec.Counts[res.Status]++
		switch res.Status {
		case rules.StatusFail, rules.StatusError:
			sec.Attention = append(sec.Attention, Entry{
				Filename: ev.Room.Filename,
				Status:   res.Status,
				Note:     res.Note(),
				Err:      res.Err,
			})
		}
		if vals := res.Values(); len(vals) > 0 {
			sec.Extracted = append(sec.Extracted, Extracted{
				Filename: ev.Room.Filename,
				Values:   append([]string(nil), vals...),
			})
		}
	}
	return r
}

// Section returns the summary for a rule id, or nil if the rule never ran.
func (r *Report) Section(id string) *Section {
	return r.byID[id]
}

// AddAggregate runs a cross-room check over the summarized results and keeps
// its outcome for rendering.
func (r *Report) AddAggregate(a Aggregate) *AggregateResult {
	res := a.Run(r)
	res.ID = a.ID()
	r.Aggregates = append(r.Aggregates, &res)
	return &res
}

// Findings counts everything that needs attention: fail and error results,
// aggregate findings and aggregate errors. Load failures are not included.
func (r *Report) Findings() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Attention)
	}
	for _, a := range r.Aggregates {
		n += len(a.Findings)
		if a.Err != nil {
			n++
		}
	}
	return n
}
