// Package pacing generates the human-like delays between batch submissions
// and between items within a batch. The cadence is deliberately non-uniform:
// Gaussian around a configured mean with a floor clamp, plus occasional
// long-tail breaks, so the request pattern does not look machine-generated.
package pacing

import (
	"math/rand/v2"
	"time"

	"yt-batch-archiver/internal/logger"
)

// Options carries the distribution knobs. Policy, not correctness: any
// non-uniform, floor-clamped distribution would satisfy the contract.
type Options struct {
	BatchMean  time.Duration
	BatchStd   time.Duration
	BatchFloor time.Duration
	ItemMean   time.Duration
	ItemStd    time.Duration
	ItemFloor  time.Duration
}

type Pacer struct {
	opts  Options
	rnd   *rand.Rand
	sleep func(time.Duration)
	log   *logger.Logger
}

func New(opts Options, log *logger.Logger) *Pacer {
	return newPacer(opts, log, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), time.Sleep)
}

// newPacer lets tests inject a deterministic source and a no-op sleep.
func newPacer(opts Options, log *logger.Logger, rnd *rand.Rand, sleep func(time.Duration)) *Pacer {
	if log == nil {
		log = logger.Default()
	}
	return &Pacer{opts: opts, rnd: rnd, sleep: sleep, log: log.WithComponent("pacing")}
}

// BatchPause blocks between batch submissions and returns the duration slept.
// 5% of pauses are very long breaks (~5 min), a further 20% are extended
// breaks (~2 min); the rest follow the configured distribution.
func (p *Pacer) BatchPause() time.Duration {
	var d time.Duration
	switch u := p.rnd.Float64(); {
	case u < 0.05:
		d = p.normal(5*time.Minute, 2*time.Minute, 2*time.Minute)
		p.log.Info("taking very long break", "duration", d.Round(time.Second).String())
	case u < 0.25:
		d = p.normal(2*time.Minute, 45*time.Second, 45*time.Second)
		p.log.Info("taking extended break", "duration", d.Round(time.Second).String())
	default:
		d = p.normal(p.opts.BatchMean, p.opts.BatchStd, p.opts.BatchFloor)
	}
	d = p.jitter(d, 5*time.Second, p.opts.BatchFloor)
	p.sleep(d)
	return d
}

// ItemPause blocks between consecutive items inside a batch. 10% of pauses
// are longer breaks, emulating a distracted user.
func (p *Pacer) ItemPause() time.Duration {
	var d time.Duration
	if p.rnd.Float64() < 0.10 {
		d = p.normal(45*time.Second, 15*time.Second, 10*time.Second)
	} else {
		d = p.normal(p.opts.ItemMean, p.opts.ItemStd, p.opts.ItemFloor)
	}
	d = p.jitter(d, 500*time.Millisecond, p.opts.ItemFloor)
	p.sleep(d)
	return d
}

// RetryCooldown blocks for a fixed duration before the single inline retry.
func (p *Pacer) RetryCooldown(d time.Duration) {
	p.sleep(d)
}

func (p *Pacer) normal(mean, std, floor time.Duration) time.Duration {
	d := time.Duration(p.rnd.NormFloat64()*float64(std) + float64(mean))
	if d < floor {
		d = floor
	}
	return d
}

func (p *Pacer) jitter(d, spread, floor time.Duration) time.Duration {
	d += time.Duration((p.rnd.Float64()*2 - 1) * float64(spread))
	if d < floor {
		d = floor
	}
	return d
}
