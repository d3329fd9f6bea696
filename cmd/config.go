package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/firm-sim/firm-sim/sim"
	"github.com/firm-sim/firm-sim/sim/dataset"
)

// options turns the shared flags into dataset options.
func options() (dataset.Options, error) {
	imp, err := parseSwitch("imports", importsFlag, "import", "no_import")
	if err != nil {
		return dataset.Options{}, err
	}
	exp, err := parseSwitch("exports", exportsFlag, "export", "no_export")
	if err != nil {
		return dataset.Options{}, err
	}
	return dataset.Options{
		DataDir:   dataDir,
		Scenario:  assets,
		PerCapita: perCapita,
		Coverage:  coverage,
		Import:    imp,
		Export:    exp,
	}, nil
}

// loadInputs reads the scenario file with strict field checking and the data
// files it names, exiting on any error.
func loadInputs() (*sim.Inputs, dataset.Options) {
	opt, err := options()
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	sc, err := dataset.LoadScenario(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load scenario %s: %v", configPath, err)
	}
	in, err := dataset.Load(sc, opt)
	if err != nil {
		logrus.Fatalf("Failed to load data for %s: %v", opt.Suffix(), err)
	}
	return in, opt
}

// resultPath names an output file of the run, e.g.
// Results/Optimisation_resultx_Super_existing_2_true_false.csv.
func resultPath(prefix string, opt dataset.Options, extra string) string {
	return filepath.Join(resultsDir, fmt.Sprintf("%s%s%s.csv", prefix, opt.Suffix(), extra))
}
