package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/firm-sim/firm-sim/sim"
	"github.com/firm-sim/firm-sim/sim/network"
	"github.com/firm-sim/firm-sim/sim/objective"
)

// Summary is the capacity, energy and levelised cost breakdown of a candidate.
// Capacities are GW (GWh for storage energy), energies TWh per year and
// levelised costs $/MWh.
type Summary struct {
	Demand, Loss float64

	SolarGW, SolarTWh float64
	SolarCF           float64 // capacity factor
	HydroGW, HydroTWh float64
	ImportGW          float64
	ImportTWh         float64
	ExportTWh         float64
	SpillageTWh       float64
	StoragePowerGW    float64
	StorageEnergyGWh  float64

	Legs           []string
	TransmissionGW []float64 // peak absolute flow per leg
	Utilisation    []float64 // mean over peak absolute flow per leg

	LCOE, LCOG, LCOB     float64
	LCOGSolar, LCOGHydro float64
	LCOGImport           float64
	LCOBStorage          float64
	LCOBTransmission     float64
	LCOBSpillage         float64 // spillage and losses
	ExportRevenue        float64 // $b per year at the import price
}

// Summarise prices the result attached to c. flows may be nil for a single node.
func Summarise(c *sim.Candidate, flows *network.FlowResult) Summary {
	in := c.Inputs()
	res := c.Result
	years := float64(in.Years) * float64(res.Window.Len()) / float64(in.Intervals())
	twh := func(series []float64) float64 { return floats.Sum(series) * 1e-6 * in.Resolution / years }
	cost := objective.CostOf(c, flows)
	f := in.Costs

	s := Summary{
		Demand:           cost.EnergyPWh * 1e3,
		Loss:             cost.LossPWh * 1e3,
		SolarGW:          floats.Sum(c.SolarGW),
		SolarTWh:         twh(c.Solar[res.Window.Start:res.Window.End]),
		HydroGW:          in.HydroCapacityGW,
		HydroTWh:         twh(in.TotalBaseload()[res.Window.Start:res.Window.End]) + twh(res.Peaking),
		ImportGW:         floats.Sum(c.InterconnectionGW),
		ExportTWh:        twh(res.Export),
		SpillageTWh:      twh(res.Spillage),
		StoragePowerGW:   floats.Sum(c.StoragePowerGW),
		StorageEnergyGWh: c.StorageEnergyGWh,
	}
	if in.ImportEnabled {
		s.ImportTWh = twh(res.Imports)
	}
	if s.SolarGW != 0 {
		s.SolarCF = s.SolarTWh / s.SolarGW / 8.76
	}
	if flows != nil {
		s.Legs = make([]string, len(flows.Legs))
		s.Utilisation = make([]float64, len(flows.Legs))
		for k, l := range flows.Legs {
			s.Legs[k] = l.Name
			if peak := cost.TransmissionGW[k]; peak > 0 {
				abs := make([]float64, res.Window.Len())
				for i, v := range flows.Leg(l.Name) {
					abs[i] = math.Abs(v)
				}
				s.Utilisation[k] = stat.Mean(abs, nil) * 1e-3 / peak
			}
		}
		s.TransmissionGW = cost.TransmissionGW
	}

	costSolar := cost.PV
	costHydro := f.Hydro * s.HydroTWh
	costImport := f.Import * s.ImportTWh
	costStorage := cost.StoragePower + cost.StorageEnergy + cost.StorageVOM
	costNetwork := cost.Transmission + cost.SolarConnection
	delivered := cost.EnergyPWh - cost.LossPWh

	s.LCOE = (costSolar + costHydro + costImport + costStorage + costNetwork) / delivered
	s.LCOG = ratio(costSolar+costHydro+costImport, s.SolarTWh+s.HydroTWh+s.ImportTWh) * 1e3
	s.LCOGSolar = ratio(costSolar, s.SolarTWh) * 1e3
	s.LCOGHydro = ratio(costHydro, s.HydroTWh) * 1e3
	s.LCOGImport = ratio(costImport, s.ImportTWh) * 1e3
	s.LCOB = s.LCOE - s.LCOG
	s.LCOBStorage = costStorage / delivered
	s.LCOBTransmission = costNetwork / delivered
	s.LCOBSpillage = s.LCOB - s.LCOBStorage - s.LCOBTransmission
	s.ExportRevenue = f.Import * s.ExportTWh
	return s
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Log prints the levelised costs at info level.
func (s Summary) Log() {
	logrus.Infof("levelised costs of electricity ($/MWh): LCOE %.2f, LCOG %.2f, LCOB %.2f", s.LCOE, s.LCOG, s.LCOB)
	logrus.Infof("  LCOG solar %.2f (CF %.3f), hydro %.2f, imports %.2f", s.LCOGSolar, s.SolarCF, s.LCOGHydro, s.LCOGImport)
	logrus.Infof("  LCOB storage %.2f, transmission %.2f, spillage and loss %.2f", s.LCOBStorage, s.LCOBTransmission, s.LCOBSpillage)
	logrus.Infof("exports %.3f TWh/yr, revenue %.6f $b/yr", s.ExportTWh, s.ExportRevenue)
}

// WriteSummary writes s as a header row and one value row.
func WriteSummary(w io.Writer, s Summary) error {
	header := []string{
		"Annual demand (TWh)", "Annual energy losses (TWh)",
		"PV capacity (GW)", "PV avg annual gen (TWh)",
		"Hydro capacity (GW)", "Hydro avg annual gen (TWh)",
		"Interconnection capacity (GW)", "Avg annual imports (TWh)", "Avg annual exports (TWh)",
		"Energy spillage (TWh)",
		"PHES power capacity (GW)", "PHES energy capacity (GWh)",
	}
	header = append(header, s.Legs...)
	header = append(header, "LCOE", "LCOG", "LCOB", "LCOG_PV", "LCOG_Hydro", "LCOG_Imports",
		"LCOBS_PHES", "LCOBT", "LCOBL")

	row := []float64{
		s.Demand, s.Loss, s.SolarGW, s.SolarTWh, s.HydroGW, s.HydroTWh,
		s.ImportGW, s.ImportTWh, s.ExportTWh, s.SpillageTWh,
		s.StoragePowerGW, s.StorageEnergyGWh,
	}
	row = append(row, s.TransmissionGW...)
	row = append(row, s.LCOE, s.LCOG, s.LCOB, s.LCOGSolar, s.LCOGHydro, s.LCOGImport,
		s.LCOBStorage, s.LCOBTransmission, s.LCOBSpillage)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	fields := make([]string, len(row))
	for i, v := range row {
		fields[i] = fmt.Sprintf("%f", v)
	}
	if err := cw.Write(fields); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
