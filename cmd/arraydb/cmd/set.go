package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

// setCmd represents the set command
var setCmd = &cobra.Command{
	Use:   "set <index> <value>...",
	Short: "Set records",
	Long: `Store values at index, index+1, ... in the store. Writing past the
end of the store fills the gap with zero records.

Example:
  arraydb set 0 10 20 30`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}

		values := make([]int64, 0, len(args)-1)
		for _, arg := range args[1:] {
			v, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return err
			}
			values = append(values, v)
		}

		records, err := storeFrom(cmd)
		if err != nil {
			return err
		}

		if err := records.SetRange(values, index); err != nil {
			return err
		}

		cmd.Printf("Stored %d record(s) at %d\n", len(values), index)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}
