package chart

import (
	"math"
	"time"

	"gonum.org/v1/plot"
)

const maxDayTicks = 31

// dailyTicks puts a labelled major tick on every UTC midnight and unlabelled
// minor ticks every six hours. Wide ranges label every nth day so at most
// maxDayTicks labels are drawn.
type dailyTicks struct {
	Format string
}

var _ plot.Ticker = dailyTicks{}

func (d dailyTicks) Ticks(min, max float64) []plot.Tick {
	if math.IsInf(min, 0) || math.IsInf(max, 0) || max < min {
		return nil
	}
	format := d.Format
	if format == "" {
		format = "2006-01-02"
	}

	const (
		daySeconds   = 24 * 60 * 60
		minorSeconds = 6 * 60 * 60
	)

	first := math.Floor(min/daySeconds) * daySeconds
	days := int((max-first)/daySeconds) + 1
	step := 1
	if days > maxDayTicks {
		step = (days + maxDayTicks - 1) / maxDayTicks
	}

	var ticks []plot.Tick
	for i := 0; ; i++ {
		v := first + float64(i)*minorSeconds
		if v > max {
			break
		}
		if v < min {
			continue
		}
		if i%4 == 0 && (i/4)%step == 0 {
			label := time.Unix(int64(v), 0).UTC().Format(format)
			ticks = append(ticks, plot.Tick{Value: v, Label: label})
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v})
	}
	return ticks
}
