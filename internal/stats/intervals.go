package stats

import (
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"nosecounter/internal/orderedmap"
)

// Bucket is the registration count of one closed interval, stamped with its end.
type Bucket struct {
	End   time.Time `json:"end"`
	Count int       `json:"count"`
}

type registration struct {
	at    time.Time
	count int
}

// bucketList appends buckets in increasing End order. A bucket landing on the
// End of the last one is merged into it, so zero caps are overwritten and no
// count is lost.
type bucketList []Bucket

func (bl *bucketList) put(end time.Time, count int) {
	if n := len(*bl); n > 0 && (*bl)[n-1].End.Equal(end) {
		(*bl)[n-1].Count += count
		return
	}
	*bl = append(*bl, Bucket{End: end, Count: count})
}

func (bl bucketList) endsAt(t time.Time) bool {
	return len(bl) > 0 && bl[len(bl)-1].End.Equal(t)
}

// AggregateIntervals sums the per-timestamp registration increments of created into
// interval buckets within the window.
//
// Every closed interval is reported at its end. Before the first interval after a
// gap, zero-count caps are emitted at the start of the gap and at the start of the
// interval so the line drops to zero instead of interpolating across the gap. The
// last, still open interval is reported at the last observed timestamp.
func AggregateIntervals(created *orderedmap.Map[int], w RegistrationWindow) ([]Bucket, error) {
	if w.Interval <= 0 {
		return nil, fmt.Errorf("aggregate registrations: interval must be positive, got %s", w.Interval)
	}

	regs := make([]registration, 0, created.Len())
	for key, count := range created.All() {
		at, err := ParseTimestamp(key)
		if err != nil {
			log.Warn().Err(err).Str("timestamp", key).Msg("Skipping unparsable registration timestamp")
			continue
		}
		if !w.Contains(at) {
			continue
		}
		regs = append(regs, registration{at: at, count: count})
	}
	if len(regs) == 0 {
		return nil, nil
	}
	slices.SortStableFunc(regs, func(a, b registration) int {
		return a.at.Compare(b.at)
	})

	var (
		buckets    bucketList
		open       = AlignToInterval(regs[0].at, w.Interval)
		sum        int
		lastClosed time.Time
		hasClosed  bool
	)

	capGap := func() {
		if buckets.endsAt(open) {
			return
		}
		if hasClosed && !open.Before(lastClosed) {
			buckets.put(lastClosed.Add(w.Interval), 0)
		}
		buckets.put(open, 0)
	}

	for _, r := range regs {
		start := AlignToInterval(r.at, w.Interval)
		if !start.After(open) {
			sum += r.count
			continue
		}

		capGap()
		lastClosed = open.Add(w.Interval)
		hasClosed = true
		buckets.put(lastClosed, sum)

		sum = r.count
		open = start
	}

	capGap()
	last := regs[len(regs)-1].at
	end := last
	if hasClosed && last.Equal(lastClosed) {
		end = open.Add(w.Interval)
		if end.After(w.End) {
			end = w.End
		}
	}
	buckets.put(end, sum)

	return buckets, nil
}

// BucketSeries converts registration buckets to a time series keyed by formatted bucket end.
func BucketSeries(buckets []Bucket, layout string) ComposedSeries {
	if layout == "" {
		layout = TimestampLayout
	}
	values := orderedmap.New[float64]()
	labels := make([]string, 0, len(buckets))
	for _, b := range buckets {
		label := b.End.Format(layout)
		labels = append(labels, label)
		values.Set(label, float64(b.Count))
	}

	series := orderedmap.New[*orderedmap.Map[float64]]()
	series.Set(RegistrationsSeries, values)

	return ComposedSeries{
		Field:  "Created",
		Mode:   ModeTimeSeries,
		Labels: labels,
		Series: series,
		Legend: []string{RegistrationsSeries},
	}
}
