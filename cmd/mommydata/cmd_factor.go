package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mommydata/pkg/core/trend"
)

var (
	factorAgeGroup  string
	factorStartYear int
	factorEndYear   int
	factorSubGroups []string
	factorSimple    bool

	factorCmd = &cobra.Command{
		Use:   "factor <name>",
		Short: "Print a factor trend as JSON",
		Long: fmt.Sprintf(`Computes the same trend the API serves for /api/v1/factor/<name>.
Known factors: %s.

--start-year is the latest year and --end-year the earliest.`, strings.Join(trend.FactorNames(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: runFactor,
	}
)

func init() {
	f := factorCmd.Flags()
	f.StringVar(&factorAgeGroup, "age-group", "", "age group to echo back as user_age_group")
	f.IntVar(&factorStartYear, "start-year", 0, "latest year to include")
	f.IntVar(&factorEndYear, "end-year", 0, "earliest year to include")
	f.StringArrayVar(&factorSubGroups, "sub-group", nil, "restrict to these sub-groups (repeatable)")
	f.BoolVar(&factorSimple, "simple", false, "print the Yes/No view")
}

func runFactor(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	req := trend.Request{
		Factor:    args[0],
		AgeGroup:  factorAgeGroup,
		SubGroups: factorSubGroups,
	}
	if cmd.Flags().Changed("start-year") {
		req.StartYear = &factorStartYear
	}
	if cmd.Flags().Changed("end-year") {
		req.EndYear = &factorEndYear
	}

	engine := trend.NewEngine(st)
	var res *trend.Result
	if factorSimple {
		res, err = engine.FactorTrendSimple(cmd.Context(), req)
	} else {
		res, err = engine.FactorTrend(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
