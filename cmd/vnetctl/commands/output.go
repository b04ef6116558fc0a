package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openvnet/openvnet/pkg/stores"
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecord prints one network record in the selected output format.
func printRecord(record *stores.NetworkRecord) error {
	if jsonOutput {
		return printJSON(record)
	}

	fmt.Printf("Network:  %s\n", record.Name)
	fmt.Printf("Phase:    %s\n", record.Phase)
	if record.Handle != nil {
		fmt.Printf("Handle:   %s\n", *record.Handle)
	}
	if record.LastError != nil {
		fmt.Printf("Error:    %s\n", *record.LastError)
	}
	fmt.Printf("Updated:  %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
