// Package output renders matched instances for the command line.
package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/scttfrdmn/ashuf/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format selects how matches are printed
type Format string

const (
	FormatJSON          Format = "json"
	FormatIPPrivateLine Format = "ip_private_line"
	FormatIPPublicLine  Format = "ip_public_line"
	FormatEnumNameTag   Format = "enum_name_tag"

	// formatJSONLegacy is accepted as an alias of FormatJSON
	formatJSONLegacy = "json_ashuf_info"
)

// Formats lists the accepted output formats
var Formats = []Format{FormatJSON, FormatIPPrivateLine, FormatIPPublicLine, FormatEnumNameTag}

var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat resolves a user supplied format name
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == formatJSONLegacy {
		return FormatJSON, nil
	}
	if lo.Contains(Formats, Format(name)) {
		return Format(name), nil
	}
	return "", fmt.Errorf("%w %q (expected one of %s)", ErrUnknownFormat, name,
		strings.Join(lo.Map(Formats, func(f Format, _ int) string { return string(f) }), ", "))
}

// Write renders records to w in the given format
func Write(w io.Writer, format Format, records []types.InstanceRecord) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, records)
	case FormatIPPrivateLine:
		return writeLines(w, records, func(r types.InstanceRecord) []string { return r.PrivateIPAddresses })
	case FormatIPPublicLine:
		return writeLines(w, records, func(r types.InstanceRecord) []string { return r.PublicIPAddresses })
	case FormatEnumNameTag:
		return writeTable(w, records)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
}

func writeJSON(w io.Writer, records []types.InstanceRecord) error {
	if records == nil {
		records = []types.InstanceRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode instances: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeLines prints every address of every record, one per line
func writeLines(w io.Writer, records []types.InstanceRecord, addrs func(types.InstanceRecord) []string) error {
	for _, r := range records {
		for _, addr := range addrs(r) {
			if _, err := fmt.Fprintln(w, addr); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTable(w io.Writer, records []types.InstanceRecord) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Name", "Instance", "State", "Zone", "Private", "Public"})
	t.SetAutoIndex(true)
	t.SetStyle(table.StyleLight)

	for _, r := range records {
		t.AppendRow(table.Row{
			r.Name(),
			r.InstanceID,
			colorState(r.StateName),
			r.AvailabilityZone,
			strings.Join(r.PrivateIPAddresses, ","),
			strings.Join(r.PublicIPAddresses, ","),
		})
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func colorState(state types.InstanceState) string {
	switch state {
	case types.StateRunning:
		return color.GreenString(string(state))
	case types.StatePending, types.StateStopping, types.StateShuttingDown:
		return color.YellowString(string(state))
	case types.StateStopped, types.StateTerminated:
		return color.RedString(string(state))
	default:
		return string(state)
	}
}
