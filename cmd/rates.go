package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"parkingfee/logger"
	"parkingfee/parking"
	"parkingfee/rates"
)

var setProfile parking.Profile

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Manage stored rate profiles",
}

var ratesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rate categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		categories, err := store.Categories(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range categories {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

var ratesShowCmd = &cobra.Command{
	Use:   "show <category>",
	Short: "Print the profile used for a category as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		profile, source, err := rates.NewResolver(store, logger.Named("rates")).Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Category string          `json:"category"`
			Source   rates.Source    `json:"source"`
			Profile  parking.Profile `json:"profile"`
		}{args[0], source, profile})
	},
}

var ratesSetCmd = &cobra.Command{
	Use:   "set <category>",
	Short: "Store a rate profile, replacing any existing one",
	Long: `Store a rate profile, replacing any existing one. Unset flags take
the weekday preset values. A cap minutes value of 0 disables that cap.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setProfile.Validate(); err != nil {
			return err
		}

		store, _, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Save(cmd.Context(), args[0], setProfile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
		return nil
	},
}

var ratesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store the weekday and holiday presets where missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		seeded, err := rates.SeedDefaults(cmd.Context(), store)
		if err != nil {
			return err
		}
		for _, c := range seeded {
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", c)
		}
		return nil
	},
}

func init() {
	def := parking.DefaultWeekdayProfile()
	f := ratesSetCmd.Flags()
	f.IntVar(&setProfile.UnitMinutes, "unit-minutes", def.UnitMinutes, "daytime unit length in minutes")
	f.IntVar(&setProfile.UnitPrice, "unit-price", def.UnitPrice, "daytime price per unit")
	f.IntVar(&setProfile.CapMinutes, "cap-minutes", def.CapMinutes, "daytime cap duration in minutes, 0 for no cap")
	f.IntVar(&setProfile.CapFee, "cap-fee", def.CapFee, "daytime cap fee")
	f.IntVar(&setProfile.NightUnitMinutes, "night-unit-minutes", def.NightUnitMinutes, "nighttime unit length in minutes")
	f.IntVar(&setProfile.NightUnitPrice, "night-unit-price", def.NightUnitPrice, "nighttime price per unit")
	f.IntVar(&setProfile.NightCapMinutes, "night-cap-minutes", def.NightCapMinutes, "nighttime cap duration in minutes, 0 for no cap")
	f.IntVar(&setProfile.NightCapFee, "night-cap-fee", def.NightCapFee, "nighttime cap fee")

	ratesCmd.AddCommand(ratesListCmd, ratesShowCmd, ratesSetCmd, ratesSeedCmd)
	rootCmd.AddCommand(ratesCmd)
}
