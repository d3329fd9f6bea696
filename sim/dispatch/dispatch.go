// Package dispatch decides, one calendar year at a time, when a flexible
// import of fixed capacity has to run. Years are independent because every
// windowed simulation starts with the reservoir half full, so they are
// solved in parallel.
package dispatch

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/firm-sim/firm-sim/sim"
)

// deficitThreshold is the unserved energy of a year window, MWh, above which
// the flexible resource has to stay on at an interval.
const deficitThreshold = 0.1

// Year is the flexible schedule of one calendar year.
type Year struct {
	Year     int       // calendar year
	Window   sim.Window
	Flexible []float64 // MW per interval of Window
	Deficit  float64   // residual deficit energy with Flexible injected, MWh
}

// Schedule is the concatenated flexible dispatch over the horizon.
type Schedule struct {
	Flexible []float64 // MW per interval
	Years    []Year
}

// Deficit is the residual deficit energy over every year, MWh.
func (s *Schedule) Deficit() float64 {
	var total float64
	for _, y := range s.Years {
		total += y.Deficit
	}
	return total
}

// Flexible dispatches year (zero-based) for decision vector x. Starting with
// the resource at full capacity everywhere, each interval in turn is switched
// off; if the year then shows a deficit the interval is switched back on at
// capacity net of what peaking hydro and storage already deliver there.
// Finally the spillage of the schedule is removed.
func Flexible(ctx context.Context, in *sim.Inputs, x []float64, year int) (*Year, error) {
	c, err := sim.NewCandidate(in, x)
	if err != nil {
		return nil, err
	}
	w := sim.YearWindow(in, year)
	n := w.Len()
	peaking := in.TotalPeaking()[w.Start:w.End]

	capacity := c.InterconnectionMW()
	flexible := make([]float64, n)
	for i := range flexible {
		flexible[i] = capacity
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		flexible[i] = 0
		res, err := sim.Simulate(c, flexible, peaking, w)
		if err != nil {
			return nil, fmt.Errorf("year %d interval %d: %w", year, i, err)
		}
		if floats.Sum(res.Deficit)*in.Resolution > deficitThreshold {
			flexible[i] = capacity - res.Peaking[i] - res.Discharge[i]
		}
	}

	res, err := sim.Simulate(c, flexible, peaking, w)
	if err != nil {
		return nil, fmt.Errorf("year %d: %w", year, err)
	}
	for i := range flexible {
		flexible[i] = math.Max(0, flexible[i]-res.Spillage[i])
	}
	final, err := sim.Simulate(c, flexible, peaking, w)
	if err != nil {
		return nil, fmt.Errorf("year %d: %w", year, err)
	}

	logrus.Infof("dispatch works on %d", in.FirstYear+year)
	return &Year{
		Year:     in.FirstYear + year,
		Window:   w,
		Flexible: flexible,
		Deficit:  floats.Sum(final.Deficit) * in.Resolution,
	}, nil
}

// Run dispatches every year of the horizon on at most workers goroutines
// (available parallelism when workers <= 0) and concatenates the schedules
// in time order.
func Run(ctx context.Context, in *sim.Inputs, x []float64, workers int) (*Schedule, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	years := make([]Year, in.Years)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(min(workers, in.Years))
	for y := 0; y < in.Years; y++ {
		g.Go(func() error {
			r, err := Flexible(ctx, in, x, y)
			if err != nil {
				return err
			}
			years[y] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Schedule{Years: years, Flexible: make([]float64, 0, in.Intervals())}
	for _, y := range years {
		s.Flexible = append(s.Flexible, y.Flexible...)
	}
	if d := s.Deficit(); d > deficitThreshold {
		logrus.Warnf("dispatch: %.1f MWh of deficit remains with the flexible schedule", d)
	}
	return s, nil
}
