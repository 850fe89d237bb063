package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/ssargent/arraydb/pkg/codec"
	"github.com/ssargent/arraydb/pkg/storage"
	"github.com/ssargent/arraydb/pkg/store"
)

const exportChunk = 256

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export every record to a JSON or YAML file",
	Long: `Export every record of the store to a file. The file is replaced
atomically, so readers never see a partial export.

Example:
  arraydb export snapshot.json
  arraydb export --format yaml snapshot.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		var serializer codec.TextSerializer[int64]
		switch format {
		case "json":
			serializer = codec.JSONSerializer[int64]{Indent: "  "}
		case "yaml":
			serializer = codec.YAMLSerializer[int64]{}
		default:
			return fmt.Errorf("unknown export format %q", format)
		}

		records, err := storeFrom(cmd)
		if err != nil {
			return err
		}

		values, err := readAllRecords(records)
		if err != nil {
			return err
		}

		data, err := serializer.Serialize(values)
		if err != nil {
			return err
		}
		if err := atomic.WriteFile(args[0], bytes.NewReader(data)); err != nil {
			return err
		}

		cmd.Printf("Exported %d record(s) to %s\n", len(values), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("format", "f", "json", "Export format: json or yaml")
}

// readAllRecords reads records in chunks until the end of the store
func readAllRecords(records *store.RecordStore[int64]) ([]int64, error) {
	all := make([]int64, 0)
	for start := 0; ; start += exportChunk {
		values, err := records.GetRange(start, exportChunk)
		if err == nil {
			all = append(all, values...)
			continue
		}
		if !errors.Is(err, storage.ErrIndexOutOfRange) {
			return nil, err
		}

		// the last chunk runs past the end
		for i := start; ; i++ {
			v, err := records.GetAt(i)
			if errors.Is(err, storage.ErrIndexOutOfRange) {
				return all, nil
			}
			if err != nil {
				return nil, err
			}
			all = append(all, v)
		}
	}
}
