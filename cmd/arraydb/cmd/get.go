package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <index> [count]",
	Short: "Get records",
	Long: `Get one record, or count records starting at index, from the store.

Example:
  arraydb get 3
  arraydb get 0 10`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, count, err := indexAndCount(args)
		if err != nil {
			return err
		}

		records, err := storeFrom(cmd)
		if err != nil {
			return err
		}

		values, err := records.GetRange(index, count)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, v := range values {
			fmt.Fprintf(out, "%d\t%d\n", index+i, v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

// indexAndCount parses "<index> [count]" arguments, count defaulting to 1
func indexAndCount(args []string) (int, int, error) {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, err
	}
	count := 1
	if len(args) > 1 {
		if count, err = strconv.Atoi(args[1]); err != nil {
			return 0, 0, err
		}
	}
	return index, count, nil
}
