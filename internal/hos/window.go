package hos

import "time"

const maxCycleDays = 8

// CycleWindow holds on-duty totals for the trailing calendar days of a cycle.
//
// It is a fixed ring of per-day totals: the slot at head is today, the slot
// after it (wrapping) is the oldest day still in the window. Crossing local
// midnight closes today and drops the oldest day. The running total is kept
// alongside so reads never rescan history.
type CycleWindow struct {
	days  [maxCycleDays]time.Duration
	size  int
	head  int
	day   time.Time
	total time.Duration
}

// NewCycleWindow builds a window of size days whose current day contains at.
// prior lists completed days oldest first; at most size-1 of the most recent are kept.
func NewCycleWindow(size int, at time.Time, prior []time.Duration) CycleWindow {
	if size < 1 || size > maxCycleDays {
		size = maxCycleDays
	}

	w := CycleWindow{size: size, head: size - 1, day: startOfDay(at)}

	if len(prior) > size-1 {
		prior = prior[len(prior)-(size-1):]
	}
	// Prior days fill the slots just before today, most recent at head-1.
	for i := range prior {
		slot := size - 1 - len(prior) + i
		w.days[slot] = prior[i]
		w.total += prior[i]
	}

	return w
}

// Total is the on-duty time summed over the window.
func (w CycleWindow) Total() time.Duration { return w.total }

// Today is the on-duty time accrued on the current calendar day.
func (w CycleWindow) Today() time.Duration { return w.days[w.head] }

// Day is local midnight of the current slot.
func (w CycleWindow) Day() time.Time { return w.day }

// Size is the window length in days.
func (w CycleWindow) Size() int { return w.size }

// Days returns the per-day totals oldest first, today last.
func (w CycleWindow) Days() []time.Duration {
	out := make([]time.Duration, 0, w.size)
	for i := 1; i <= w.size; i++ {
		out = append(out, w.days[(w.head+i)%w.size])
	}
	return out
}

func (w CycleWindow) add(d time.Duration) CycleWindow {
	w.days[w.head] += d
	w.total += d
	return w
}

// rollTo slides the window forward so that t falls on the current day.
func (w CycleWindow) rollTo(t time.Time) CycleWindow {
	target := startOfDay(t)
	for n := 0; w.day.Before(target); n++ {
		if n >= w.size {
			// Everything has aged out; jump straight to the target day.
			w = w.clear()
			w.day = target
			return w
		}
		w.head = (w.head + 1) % w.size
		w.total -= w.days[w.head]
		w.days[w.head] = 0
		w.day = nextDay(w.day)
	}
	return w
}

func (w CycleWindow) clear() CycleWindow {
	w.days = [maxCycleDays]time.Duration{}
	w.total = 0
	return w
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func nextDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, day.Location())
}
