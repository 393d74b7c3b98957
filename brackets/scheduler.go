package brackets

import (
	"fmt"
	"time"

	"github.com/haithamlamki/sssppprt-sub000/models"
)

// SchedulerCursor is the scheduler state threaded through each placement:
// the current civil day, how many matches each venue already holds on it, and
// which venue the rotation tries next.
type SchedulerCursor struct {
	Date           time.Time
	PerVenueCounts map[string]int
	NextVenue      int
	// Wraps counts how often the cursor ran past the end date and restarted
	// at the start date.
	Wraps int
}

func (c SchedulerCursor) clone() SchedulerCursor {
	counts := make(map[string]int, len(c.PerVenueCounts))
	for k, v := range c.PerVenueCounts {
		counts[k] = v
	}
	c.PerVenueCounts = counts
	return c
}

// Placement is where and when one match is played.
type Placement struct {
	At    time.Time
	Venue string
}

// Scheduler places matches greedily on venues and days. It holds only
// configuration; all progress lives in the cursor.
type Scheduler struct {
	start        time.Time
	end          *time.Time
	startMinutes int
	slot         time.Duration
	defaultCap   int
	venues       []models.Venue
	loc          *time.Location
}

// NewScheduler builds a scheduler for the given window. cfg defaults are applied.
func NewScheduler(startDate time.Time, endDate *time.Time, cfg models.ScheduleConfig) (*Scheduler, error) {
	cfg = cfg.WithDefaults()
	startMinutes, err := cfg.DailyStartMinutes()
	if err != nil {
		return nil, err
	}
	if cfg.MatchDuration() <= 0 {
		return nil, fmt.Errorf("match duration must be positive")
	}
	loc := cfg.Location()

	s := &Scheduler{
		start:        civilMidnight(startDate, loc),
		startMinutes: startMinutes,
		slot:         cfg.MatchDuration(),
		defaultCap:   cfg.MatchesPerDay,
		venues:       cfg.Venues,
		loc:          loc,
	}
	if endDate != nil {
		end := civilMidnight(*endDate, loc)
		if end.Before(s.start) {
			return nil, fmt.Errorf("end date %s is before start date %s", end.Format(time.DateOnly), s.start.Format(time.DateOnly))
		}
		s.end = &end
	}
	return s, nil
}

// civilMidnight takes the calendar day t falls on in loc and returns its
// midnight in loc.
func civilMidnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Start returns a fresh cursor on the start date.
func (s *Scheduler) Start() SchedulerCursor {
	return SchedulerCursor{Date: s.start, PerVenueCounts: map[string]int{}}
}

func (s *Scheduler) capacity(v models.Venue) int {
	c := s.defaultCap
	if v.MatchesPerDay != nil {
		c = *v.MatchesPerDay
	}
	if c < 1 {
		c = 1
	}
	return c
}

// Place finds the next free venue slot at or after the cursor and returns it
// together with the advanced cursor. The input cursor is not modified.
func (s *Scheduler) Place(c SchedulerCursor) (Placement, SchedulerCursor) {
	next := c.clone()
	for {
		for i := 0; i < len(s.venues); i++ {
			idx := (next.NextVenue + i) % len(s.venues)
			v := s.venues[idx]
			used := next.PerVenueCounts[v.Name]
			if used >= s.capacity(v) {
				continue
			}
			at := next.Date.Add(time.Duration(s.startMinutes)*time.Minute + time.Duration(used)*s.slot)
			next.PerVenueCounts[v.Name] = used + 1
			next.NextVenue = (idx + 1) % len(s.venues)
			return Placement{At: at, Venue: v.Name}, next
		}
		next = s.advanceDay(next)
	}
}

func (s *Scheduler) advanceDay(c SchedulerCursor) SchedulerCursor {
	y, m, d := c.Date.Date()
	c.Date = time.Date(y, m, d+1, 0, 0, 0, 0, s.loc)
	if s.end != nil && c.Date.After(*s.end) {
		c.Date = s.start
		c.Wraps++
	}
	c.PerVenueCounts = map[string]int{}
	c.NextVenue = 0
	return c
}

// Assign dates every match in order, starting from cursor, and returns the
// final cursor.
func (s *Scheduler) Assign(cursor SchedulerCursor, matches []*BracketMatch) SchedulerCursor {
	for _, bm := range matches {
		var p Placement
		p, cursor = s.Place(cursor)
		at, venue := p.At, p.Venue
		bm.MatchDate = &at
		bm.Venue = &venue
	}
	return cursor
}

// ScheduleKnockout dates knockout rows round by round. Round one starts at
// firstStart; each later round starts gapDays after the previous one, or on
// the day after the previous round's last match if that is later. Inside a
// round matches follow each other every matchDuration+buffer on a venue until
// its daily capacity is used or the next kickoff would fall after midnight,
// then move to the next venue and finally to the next day at the daily start
// time. Byes are not dated.
func ScheduleKnockout(matches []*BracketMatch, firstStart time.Time, cfg models.ScheduleConfig) {
	cfg = cfg.WithDefaults()
	step := cfg.MatchDuration() + cfg.Buffer()
	loc := cfg.Location()
	firstStart = firstStart.In(loc)
	firstKickoff := time.Duration(firstStart.Hour()*60+firstStart.Minute()) * time.Minute
	dailyKickoff := firstKickoff
	if minutes, err := cfg.DailyStartMinutes(); err == nil {
		dailyKickoff = time.Duration(minutes) * time.Minute
	}
	capacity := func(v models.Venue) int {
		c := cfg.MatchesPerDay
		if v.MatchesPerDay != nil {
			c = *v.MatchesPerDay
		}
		return max(c, 1)
	}

	byRound := map[int][]*BracketMatch{}
	lastRound := 0
	for _, bm := range matches {
		if bm.IsBye() {
			continue
		}
		byRound[bm.Round] = append(byRound[bm.Round], bm)
		lastRound = max(lastRound, bm.Round)
	}

	var prevDay time.Time
	for r := 1; r <= lastRound; r++ {
		round := byRound[r]
		if len(round) == 0 {
			continue
		}
		y, m, d := firstStart.Date()
		day := time.Date(y, m, d+(r-1)*cfg.KnockoutRoundGapDays, 0, 0, 0, 0, loc)
		kickoff := firstKickoff
		if !prevDay.IsZero() && !day.After(prevDay) {
			day, kickoff = prevDay.AddDate(0, 0, 1), dailyKickoff
		}

		venue, used := 0, 0
		for _, bm := range round {
			for {
				at := day.Add(kickoff + time.Duration(used)*step)
				if used < capacity(cfg.Venues[venue]) && at.Before(day.AddDate(0, 0, 1)) {
					name := cfg.Venues[venue].Name
					bm.MatchDate = &at
					bm.Venue = &name
					used++
					break
				}
				venue, used = venue+1, 0
				if venue == len(cfg.Venues) {
					venue = 0
					day, kickoff = day.AddDate(0, 0, 1), dailyKickoff
				}
			}
		}
		prevDay = day
	}
}

// DayAfter returns the daily start time on the civil day after t.
func DayAfter(t time.Time, cfg models.ScheduleConfig) (time.Time, error) {
	cfg = cfg.WithDefaults()
	startMinutes, err := cfg.DailyStartMinutes()
	if err != nil {
		return time.Time{}, err
	}
	loc := cfg.Location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(time.Duration(startMinutes) * time.Minute), nil
}
