// Command contagion measures how fast a behavior spreads through a school.
//
// Usage
//
// The contagion command takes one optional argument:
//
//	contagion [config_file]
//
// It is the path to a TOML config file using the keys of Config.
//
// Replicates run the same model with seeds Seed, Seed+1, ... and record
// the number of contaminated agents at each tick. The counts are saved
// as the "infected" dataset of the Output HDF5 file, one row per
// replicate, and the mean curve is drawn in Chart.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/PrincetonUniversity/shoal"
	"github.com/PrincetonUniversity/shoal/hdf5"
	"github.com/PrincetonUniversity/shoal/internal/cli"
	"github.com/PrincetonUniversity/shoal/plot"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const usage = `Usage: contagion [config_file]

The first argument is optional and is the path to a TOML config file.
If no config file is specified, default parameters are used.
`

func main() {
	conf := DefaultConf
	undecoded, err := cli.Args(os.Args, usage, &conf)
	if err != nil {
		cli.Fatal(err)
	}
	log, err := cli.NewLogger(conf.LogLevel)
	if err != nil {
		cli.Fatal(err)
	}
	for _, k := range undecoded {
		log.WithField("key", k).Warn("unknown config key")
	}

	runs, err := replicates(&conf, log)
	if err != nil {
		cli.Fatal(err)
	}
	if conf.Output != "" {
		if err := save(&conf, runs); err != nil {
			cli.Fatal(err)
		}
	}
	if conf.Chart != "" {
		if err := chart(&conf, runs); err != nil {
			cli.Fatal(err)
		}
	}
}

// A run is the outcome of one replicate.
type run struct {
	Seed   int64
	Counts []int // contaminated agents before the first tick and after each tick
	Full   int   // first tick at which the whole school is contaminated, -1 if never
}

// replicate runs the model m for the given number of steps.
// The seed of m is used as is, zero included.
func replicate(m cli.Model, steps int, dt float64) (run, error) {
	c, err := m.Config()
	if err != nil {
		return run{}, err
	}
	sim, err := shoal.New(c)
	if err != nil {
		return run{}, err
	}
	r := run{Seed: c.Seed, Counts: make([]int, 0, steps+1), Full: -1}
	r.Counts = append(r.Counts, sim.Infected())
	for i := 0; i < steps; i++ {
		if err := sim.Tick(dt); err != nil {
			return r, err
		}
		n := sim.Infected()
		r.Counts = append(r.Counts, n)
		if r.Full < 0 && n == c.Size {
			r.Full = sim.Ticks()
		}
	}
	return r, nil
}

// replicates runs all replicates concurrently, each with its own seed.
func replicates(conf *Config, log logrus.FieldLogger) ([]run, error) {
	if conf.Replicates <= 0 || conf.Steps <= 0 {
		return nil, fmt.Errorf("need positive Replicates and Steps, got %d and %d", conf.Replicates, conf.Steps)
	}
	// validate once and draw the base seed if needed
	if _, err := conf.Shoal(); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"replicates": conf.Replicates, "seed": conf.Seed}).Info("starting")

	limit := conf.Parallel
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	runs := make([]run, conf.Replicates)
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range runs {
		m := conf.Model
		m.Seed += int64(i)
		g.Go(func() error {
			r, err := replicate(m, conf.Steps, conf.Dt)
			if err != nil {
				return fmt.Errorf("replicate %d: %w", i, err)
			}
			runs[i] = r
			log.WithFields(logrus.Fields{"replicate": i, "seed": r.Seed, "full": r.Full}).Debug("done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var full, sum int
	for _, r := range runs {
		if r.Full >= 0 {
			full++
			sum += r.Full
		}
	}
	fields := logrus.Fields{"contaminated": full, "replicates": len(runs)}
	if full > 0 {
		fields["mean_ticks"] = float64(sum) / float64(full)
	}
	log.WithFields(fields).Info("finished")
	return runs, nil
}

// save writes the counts of every replicate as a Replicates x (Steps+1) dataset.
func save(conf *Config, runs []run) error {
	cols := conf.Steps + 1
	data := make([]int64, 0, len(runs)*cols)
	for _, r := range runs {
		for _, n := range r.Counts {
			data = append(data, int64(n))
		}
	}
	return hdf5.Save(conf.Output, conf, "infected", &data, uint(len(runs)), uint(cols))
}

// chart draws the mean curve along with the first few replicates.
func chart(conf *Config, runs []run) (err error) {
	counts := make([][]int, len(runs))
	for i, r := range runs {
		counts[i] = r.Counts
	}
	series := []plot.Series{plot.Mean("mean", counts)}
	for i := 0; i < conf.Shown && i < len(runs); i++ {
		series = append(series, plot.Counts(fmt.Sprintf("seed %d", runs[i].Seed), runs[i].Counts))
	}

	if err := os.MkdirAll(filepath.Dir(conf.Chart), 0755); err != nil {
		return err
	}
	f, err := os.Create(conf.Chart)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return plot.Infections(f, plot.Options{
		Title: fmt.Sprintf("%d replicates, %d agents, %s strategy", len(runs), conf.SchoolSize, conf.Strategy),
		Total: conf.SchoolSize,
		Dt:    conf.Dt,
	}, series...)
}
