package analyzer

import (
	"io"
	"math"

	"golang.org/x/time/rate"
)

// ProgressFunc receives upload progress as a whole percentage.
type ProgressFunc func(percent int)

// progressReader counts body bytes as the transport pulls them and reports
// round(sent*100/total). Only increases are reported; intermediate values are
// throttled by limiter, while the first report and 100 always go through.
type progressReader struct {
	r       io.Reader
	total   int64
	sent    int64
	last    int
	started bool
	limiter *rate.Limiter
	report  ProgressFunc
}

func newProgressReader(r io.Reader, total int64, limiter *rate.Limiter, report ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, last: -1, limiter: limiter, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.emit()
	}
	return n, err
}

func (p *progressReader) emit() {
	if p.report == nil || p.total <= 0 {
		return
	}

	percent := int(math.Round(float64(p.sent) * 100 / float64(p.total)))
	percent = min(percent, 100)
	if percent <= p.last {
		return
	}

	if p.started && percent < 100 && p.limiter != nil && !p.limiter.Allow() {
		return
	}

	p.started = true
	p.last = percent
	p.report(percent)
}
