package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"parkingfee/logger"
	"parkingfee/parking"
	"parkingfee/rates"
)

var (
	feeMinutes  int
	feeStart    string
	feeCategory string

	splitWeekdayMinutes  int
	splitHolidayMinutes  int
	splitWeekdayCategory string
	splitHolidayCategory string
)

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Compute the fee for one stay",
	Long: `Compute the fee for one stay. Without --start the daytime regime is
used. The whole stay is priced by the regime in force at its start.`,
	Args: cobra.NoArgs,
	RunE: runFee,
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Compute the fee for a stay split across weekday and holiday time",
	Args:  cobra.NoArgs,
	RunE:  runSplit,
}

func init() {
	feeCmd.Flags().IntVarP(&feeMinutes, "minutes", "m", 0, "stay length in minutes")
	feeCmd.Flags().StringVarP(&feeStart, "start", "s", "", "start time of day, HH:MM")
	feeCmd.Flags().StringVarP(&feeCategory, "category", "c", string(parking.Weekday), "rate category")
	_ = feeCmd.MarkFlagRequired("minutes")

	splitCmd.Flags().IntVar(&splitWeekdayMinutes, "weekday", 0, "minutes charged at the weekday rate")
	splitCmd.Flags().IntVar(&splitHolidayMinutes, "holiday", 0, "minutes charged at the holiday rate")
	splitCmd.Flags().StringVar(&splitWeekdayCategory, "weekday-category", string(parking.Weekday), "rate category for the weekday part")
	splitCmd.Flags().StringVar(&splitHolidayCategory, "holiday-category", string(parking.Holiday), "rate category for the holiday part")

	rootCmd.AddCommand(feeCmd, splitCmd)
}

func runFee(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, _, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	profile, source, err := rates.NewResolver(store, logger.Named("rates")).Resolve(ctx, feeCategory)
	if err != nil {
		return err
	}
	calc, err := parking.NewCalculator(profile)
	if err != nil {
		return err
	}

	var q parking.Quote
	if feeStart == "" {
		q, err = calc.Quote(feeMinutes)
	} else {
		var start parking.TimeOfDay
		if start, err = parking.ParseTimeOfDay(feeStart); err != nil {
			return err
		}
		q, err = calc.QuoteAt(feeMinutes, start.Hour, start.Minute)
	}
	if err != nil {
		return err
	}

	capped := ""
	if q.Capped {
		capped = " (capped)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s/%s rates, %s regime, %d min: base %d, fee %d%s\n",
		feeCategory, source, q.Regime, q.Minutes, q.Base, q.Amount, capped)
	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, _, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	resolver := rates.NewResolver(store, logger.Named("rates"))
	weekday, _, err := resolver.Resolve(ctx, splitWeekdayCategory)
	if err != nil {
		return err
	}
	holiday, _, err := resolver.Resolve(ctx, splitHolidayCategory)
	if err != nil {
		return err
	}

	total, err := parking.SplitFee(splitWeekdayMinutes, splitHolidayMinutes, &weekday, &holiday)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d min %s + %d min %s: fee %d\n",
		splitWeekdayMinutes, splitWeekdayCategory, splitHolidayMinutes, splitHolidayCategory, total)
	return nil
}
