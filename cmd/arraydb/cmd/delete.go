package cmd

import (
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <index> [count]",
	Short: "Delete records",
	Long: `Delete one record, or count records starting at index. Later records
move down to close the gap.

Example:
  arraydb delete 4
  arraydb delete 0 10`,
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

		if err := records.DeleteRange(index, count); err != nil {
			return err
		}

		cmd.Printf("Deleted %d record(s) at %d\n", count, index)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
