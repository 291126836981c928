package main

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/chatshot/internal/detection"
	chatimg "github.com/ironsheep/chatshot/internal/imaging"
	"github.com/ironsheep/chatshot/internal/pipeline"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// resolveFormat returns the requested output format, defaulting to a table on
// a terminal and JSON otherwise.
func resolveFormat(flag string, out io.Writer) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(flag)); f {
	case "":
		if isTerminal(out) {
			return formatTable, nil
		}
		return formatJSON, nil
	case formatTable, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want table, json or yaml)", flag)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func side(isLeft bool) string {
	if isLeft {
		return "received"
	}
	return "sent"
}

type messageRecord struct {
	Time string `yaml:"time,omitempty"`
	Side string `yaml:"side"`
	Body string `yaml:"body"`
}

type transcriptRecord struct {
	ChatName string          `yaml:"chat_name"`
	Messages []messageRecord `yaml:"messages"`
}

func toTranscriptRecord(t *pipeline.Transcript) transcriptRecord {
	rec := transcriptRecord{ChatName: t.ChatName, Messages: make([]messageRecord, 0, len(t.Messages))}
	for _, m := range t.Messages {
		mr := messageRecord{Side: side(m.IsReceiver), Body: m.Body}
		if m.Time != nil {
			mr.Time = m.Time.Format(time.RFC3339)
		}
		rec.Messages = append(rec.Messages, mr)
	}
	return rec
}

func writeTranscript(cmd *cobra.Command, format string, t *pipeline.Transcript) error {
	switch format {
	case formatJSON:
		return writeJSON(cmd, t)
	case formatYAML:
		return writeYAML(cmd, toTranscriptRecord(t))
	}

	out := cmd.OutOrStdout()
	if t.ChatName != "" {
		fmt.Fprintf(out, "Chat: %s\n", t.ChatName)
	}
	rows := make([][]string, 0, len(t.Messages))
	for i, m := range t.Messages {
		when := ""
		if m.Time != nil {
			when = m.Time.Format("15:04")
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), when, side(m.IsReceiver), m.Body})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Time", "Side", "Message"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
	))
	return nil
}

type bubbleRecord struct {
	X         int     `json:"x" yaml:"x"`
	Y         int     `json:"y" yaml:"y"`
	Width     int     `json:"width" yaml:"width"`
	Height    int     `json:"height" yaml:"height"`
	Side      string  `json:"side" yaml:"side"`
	Intensity float64 `json:"average_intensity" yaml:"average_intensity"`
	Fill      string  `json:"fill" yaml:"fill"`
}

func bubbleRecords(img image.Image, bubbles []detection.Bubble) []bubbleRecord {
	records := make([]bubbleRecord, 0, len(bubbles))
	for _, b := range bubbles {
		records = append(records, bubbleRecord{
			X: b.X, Y: b.Y, Width: b.Width, Height: b.Height,
			Side:      side(b.IsLeftAligned),
			Intensity: b.AverageIntensity,
			Fill:      chatimg.Dominant(img, b.Rect()).Hex(),
		})
	}
	return records
}

func writeBubbles(cmd *cobra.Command, format string, img image.Image, bubbles []detection.Bubble) error {
	records := bubbleRecords(img, bubbles)
	switch format {
	case formatJSON:
		return writeJSON(cmd, records)
	case formatYAML:
		return writeYAML(cmd, records)
	}

	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.X),
			strconv.Itoa(r.Y),
			strconv.Itoa(r.Width),
			strconv.Itoa(r.Height),
			r.Side,
			strconv.FormatFloat(r.Intensity, 'f', 0, 64),
			r.Fill,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"#", "X", "Y", "Width", "Height", "Side", "Intensity", "Fill"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft, alignRight, alignLeft},
	))
	return nil
}
